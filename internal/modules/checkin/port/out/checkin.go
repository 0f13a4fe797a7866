package out

import (
	"context"
	"time"

	"staywithme/internal/modules/checkin/domain"
)

// SessionStore owns persisted session state. Level writes go through
// AdvanceLevel and Confirm only; both are atomic at the storage layer.
type SessionStore interface {
	GetActive(ctx context.Context) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	Create(ctx context.Context, session domain.Session) error
	EndAllActive(ctx context.Context, at time.Time) (int64, error)
	// End reports whether the session was active before the call.
	End(ctx context.Context, id string, at time.Time) (bool, error)
	// AdvanceLevel moves an active session from one level to a higher one,
	// only if neither the level nor the epoch changed since it was read.
	// A lost race returns apperrors.ErrStaleWrite.
	AdvanceLevel(ctx context.Context, id string, from, to domain.Level, epoch int64) error
	Confirm(ctx context.Context, id string, at time.Time) (domain.Session, error)
	UpdateLocation(ctx context.Context, id, location string) error
	List(ctx context.Context, limit int) ([]domain.Session, error)
}

// ProfileSource answers the profile questions the engine needs.
type ProfileSource interface {
	CheckInInterval(ctx context.Context) (int, error)
	HasProfile(ctx context.Context) (bool, error)
}

// Dispatcher performs and records the side effects of the engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, session domain.Session, level domain.Level) error
	NotifyCompleted(ctx context.Context, sessionID string) error
	RecordReset(ctx context.Context, sessionID string) error
}

// LocationProvider returns the last known position as "lat,lon". ok is false
// when no fresh position is known.
type LocationProvider interface {
	LastKnown(ctx context.Context) (location string, ok bool, err error)
}
