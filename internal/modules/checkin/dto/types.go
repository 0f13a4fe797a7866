package dto

import "time"

type StartInput struct {
	Duration   time.Duration
	Substances string
	Notes      string
}

type SessionOutput struct {
	ID              string
	StartedAt       time.Time
	EndsAt          time.Time
	Duration        time.Duration
	Active          bool
	Level           int
	LastConfirmedAt *time.Time
	EndedAt         *time.Time
	Location        string
	Substances      string
	Notes           string
}

// StatusOutput describes the active session and its current countdowns.
type StatusOutput struct {
	Session          SessionOutput
	IntervalMinutes  int
	Elapsed          time.Duration
	Remaining        time.Duration
	Expired          bool
	Level            int
	LevelName        string
	NextCheckInAt    time.Time
	UrgentAt         time.Time
	CheckInReachable bool
	UrgentReachable  bool
	FullCycle        bool
	At               time.Time
}

type EvaluateOutput struct {
	SessionID     string
	Source        string
	PreviousLevel int
	Level         int
	Dispatched    bool
	Expired       bool
}

// Evaluation sources accepted by Usecase.Evaluate.
const (
	SourceForeground = "foreground"
	SourceBackground = "background"
	SourceManual     = "manual"
	SourceRemote     = "remote"
)

// Snapshot is the foreground view of the attached session after the last
// timer callback. Zero deadlines mean the countdown is not armed.
type Snapshot struct {
	SessionID     string
	Active        bool
	Completed     bool
	Level         int
	LevelName     string
	Remaining     time.Duration
	EndsAt        time.Time
	NextCheckInAt time.Time
	UrgentAt      time.Time
	Err           error
}
