package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the notification log entry type.
type Kind string

const (
	KindGentle    Kind = "gentle"
	KindUrgent    Kind = "urgent"
	KindEmergency Kind = "emergency"
	KindBroadcast Kind = "sms_call"
	KindSMS       Kind = "sms"
	KindReset     Kind = "reset"
	KindCompleted Kind = "completed"
)

const (
	LevelGentle    = 1
	LevelUrgent    = 2
	LevelEmergency = 3
	LevelBroadcast = 4
)

var (
	ErrRateLimited  = errors.New("notification rate limited")
	ErrUnknownLevel = errors.New("unknown escalation level")
	ErrNoContacts   = errors.New("no active emergency contacts")
)

// Notification is a local, user-visible alert.
type Notification struct {
	ID         int
	Title      string
	Body       string
	Urgent     bool
	Persistent bool
}

var (
	gentleReminder = Notification{
		ID:    1001,
		Title: "Time to Check In",
		Body:  "Please confirm you're okay",
	}
	urgentAlert = Notification{
		ID:     1002,
		Title:  "URGENT: Check In Required",
		Body:   "Please respond immediately to confirm your safety",
		Urgent: true,
	}
	emergencyAlert = Notification{
		ID:         1003,
		Title:      "EMERGENCY: Immediate Response Required",
		Body:       "Emergency contacts will be notified if no response",
		Urgent:     true,
		Persistent: true,
	}
	completedNotice = Notification{
		ID:     1004,
		Title:  "Safety Session Completed",
		Body:   "Your safety session has ended successfully. Thank you for staying safe!",
		Urgent: true,
	}
)

// KindForLevel maps an escalation level to the log kind of its dispatch.
func KindForLevel(level int) (Kind, error) {
	switch level {
	case LevelGentle:
		return KindGentle, nil
	case LevelUrgent:
		return KindUrgent, nil
	case LevelEmergency:
		return KindEmergency, nil
	case LevelBroadcast:
		return KindBroadcast, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownLevel, level)
	}
}

// LocalNotificationFor returns the local alert shown for levels 1 to 3.
func LocalNotificationFor(level int) (Notification, bool) {
	switch level {
	case LevelGentle:
		return gentleReminder, true
	case LevelUrgent:
		return urgentAlert, true
	case LevelEmergency:
		return emergencyAlert, true
	default:
		return Notification{}, false
	}
}

func CompletedNotice() Notification {
	return completedNotice
}

type LogEntry struct {
	ID        string
	SessionID string
	Kind      Kind
	At        time.Time
	Success   bool
	ContactID string
	Message   string
}

// Recipient is an active emergency contact in delivery order.
type Recipient struct {
	ContactID string
	Name      string
	Phone     string
}

type DispatchResult struct {
	Level     int
	Kind      Kind
	Success   bool
	Delivered int
	Failed    int
	Message   string
}

// DispatchRequest carries the session context a dispatch may need.
type DispatchRequest struct {
	SessionID  string
	Level      int
	Location   string
	Substances string
	Notes      string
}
