package out

import (
	"context"
	"time"

	"staywithme/internal/modules/notify/domain"
)

// Notifier shows a local notification on the host.
type Notifier interface {
	Show(ctx context.Context, notification domain.Notification) error
}

// MessageChannel delivers a text message to one phone number.
type MessageChannel interface {
	Name() string
	SendText(ctx context.Context, phone, body string) error
}

type LogStore interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	List(ctx context.Context, sessionID string, limit int) ([]domain.LogEntry, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ProfileReader interface {
	MessageProfile(ctx context.Context) (domain.MessageContext, error)
	ActiveRecipients(ctx context.Context) ([]domain.Recipient, error)
}
