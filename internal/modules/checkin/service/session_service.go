package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"staywithme/internal/modules/checkin/domain"
	checkinout "staywithme/internal/modules/checkin/port/out"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/id"
	"staywithme/internal/platform/metrics"
	"staywithme/internal/platform/tx"
)

const (
	DefaultLocationTimeout = 2 * time.Second
	DefaultHistoryLimit    = 20
)

type SessionService struct {
	clock           clock.Clock
	idGen           id.Generator
	tx              tx.Manager
	sessions        checkinout.SessionStore
	profiles        checkinout.ProfileSource
	locations       checkinout.LocationProvider
	dispatcher      checkinout.Dispatcher
	locationTimeout time.Duration
	log             *zap.SugaredLogger
}

func NewSessionService(
	clock clock.Clock,
	idGen id.Generator,
	txm tx.Manager,
	sessions checkinout.SessionStore,
	profiles checkinout.ProfileSource,
	locations checkinout.LocationProvider,
	dispatcher checkinout.Dispatcher,
	log *zap.SugaredLogger,
) *SessionService {
	if txm == nil {
		txm = tx.None
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SessionService{
		clock:           clock,
		idGen:           idGen,
		tx:              txm,
		sessions:        sessions,
		profiles:        profiles,
		locations:       locations,
		dispatcher:      dispatcher,
		locationTimeout: DefaultLocationTimeout,
		log:             log,
	}
}

// Start ends any active session and opens a new one in a single transaction.
func (s *SessionService) Start(ctx context.Context, duration time.Duration, substances, notes string) (domain.Session, error) {
	if err := domain.ValidateDuration(duration); err != nil {
		return domain.Session{}, err
	}
	ok, err := s.profiles.HasProfile(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: save a profile with your name before starting a session", apperrors.ErrConfiguration)
	}
	location := s.lastKnownLocation(ctx)

	now := s.clock.Now()
	session := domain.Session{
		ID:         s.idGen.New(),
		StartedAt:  now,
		Duration:   duration,
		Active:     true,
		Location:   location,
		Substances: strings.TrimSpace(substances),
		Notes:      strings.TrimSpace(notes),
	}
	if err := session.Validate(); err != nil {
		return domain.Session{}, err
	}
	var ended int64
	err = s.tx.Within(ctx, func(txCtx context.Context) error {
		var err error
		if ended, err = s.sessions.EndAllActive(txCtx, now); err != nil {
			return err
		}
		return s.sessions.Create(txCtx, session)
	})
	if err != nil {
		return domain.Session{}, err
	}
	metrics.CurrentLevel.Set(0)
	s.log.Infow("session started",
		"sessionID", session.ID, "duration", duration.String(), "endedPrevious", ended, "hasLocation", location != "")
	return session, nil
}

func (s *SessionService) End(ctx context.Context) (domain.Session, error) {
	session, err := s.sessions.GetActive(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.clock.Now()
	if _, err := s.sessions.End(ctx, session.ID, now); err != nil {
		return domain.Session{}, err
	}
	session.Active = false
	session.EndedAt = &now
	s.log.Infow("session ended by user", "sessionID", session.ID, "level", session.Level)
	return session, nil
}

// Complete ends a session whose duration has elapsed. Only the call that
// actually ends it sends the completion notice.
func (s *SessionService) Complete(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !session.Active {
		return false, nil
	}
	now := s.clock.Now()
	if !session.Expired(now) {
		return false, fmt.Errorf("%w: session %s still has %s remaining",
			apperrors.ErrInvalidInput, session.ID, session.Remaining(now).Round(time.Second))
	}
	transitioned, err := s.sessions.End(ctx, session.ID, now)
	if err != nil || !transitioned {
		return false, err
	}
	s.log.Infow("session completed", "sessionID", session.ID, "level", session.Level)
	if err := s.dispatcher.NotifyCompleted(ctx, session.ID); err != nil {
		s.log.Warnw("completion notice not recorded", "sessionID", session.ID, "error", err)
	}
	return true, nil
}

func (s *SessionService) Active(ctx context.Context) (domain.Session, error) {
	return s.sessions.GetActive(ctx)
}

// Status returns the active session with the interval and instant its
// countdowns should be derived from.
func (s *SessionService) Status(ctx context.Context) (domain.Session, int, time.Time, error) {
	session, err := s.sessions.GetActive(ctx)
	if err != nil {
		return domain.Session{}, 0, time.Time{}, err
	}
	interval, err := s.profiles.CheckInInterval(ctx)
	if err != nil {
		return domain.Session{}, 0, time.Time{}, err
	}
	return session, interval, s.clock.Now(), nil
}

func (s *SessionService) History(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.sessions.List(ctx, limit)
}

// RefreshLocation stores a newer position on the active session, if any.
func (s *SessionService) RefreshLocation(ctx context.Context) (bool, error) {
	session, err := s.sessions.GetActive(ctx)
	if err != nil {
		return false, err
	}
	location := s.lastKnownLocation(ctx)
	if location == "" || location == session.Location {
		return false, nil
	}
	if err := s.sessions.UpdateLocation(ctx, session.ID, location); err != nil {
		return false, err
	}
	s.log.Debugw("session location refreshed", "sessionID", session.ID)
	return true, nil
}

// lastKnownLocation is best effort: a slow or failing provider yields "".
func (s *SessionService) lastKnownLocation(ctx context.Context) string {
	if s.locations == nil {
		return ""
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.locationTimeout)
	defer cancel()
	location, ok, err := s.locations.LastKnown(lookupCtx)
	if err != nil {
		s.log.Warnw("location unavailable", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return location
}
