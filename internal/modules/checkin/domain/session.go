package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "staywithme/internal/platform/errors"
)

const (
	MinSessionDuration = 5 * time.Minute
	MaxSessionDuration = 24 * time.Hour
)

// Session is one timed safety-monitoring period. At most one is active.
type Session struct {
	ID              string
	StartedAt       time.Time
	Duration        time.Duration
	Active          bool
	LastConfirmedAt *time.Time
	Level           Level
	// Epoch increments on every confirmation and guards level writes.
	Epoch      int64
	Location   string
	Substances string
	Notes      string
	EndedAt    *time.Time
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if s.StartedAt.IsZero() {
		return fmt.Errorf("%w: session start is required", apperrors.ErrInvalidInput)
	}
	return ValidateDuration(s.Duration)
}

func ValidateDuration(d time.Duration) error {
	if d < MinSessionDuration || d > MaxSessionDuration {
		return fmt.Errorf("%w: session duration must be between %s and %s, got %s",
			apperrors.ErrInvalidInput, MinSessionDuration, MaxSessionDuration, d)
	}
	return nil
}

// Baseline is the instant elapsed time is measured from: the last
// confirmation, or the start when the user never confirmed.
func (s Session) Baseline() time.Time {
	if s.LastConfirmedAt != nil && s.LastConfirmedAt.After(s.StartedAt) {
		return *s.LastConfirmedAt
	}
	return s.StartedAt
}

func (s Session) EndsAt() time.Time {
	return s.StartedAt.Add(s.Duration)
}

func (s Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.Baseline())
}

func (s Session) Remaining(now time.Time) time.Duration {
	remaining := s.EndsAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the configured duration has fully elapsed.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.EndsAt())
}
