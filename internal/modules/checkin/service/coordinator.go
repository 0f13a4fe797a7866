package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"staywithme/internal/modules/checkin/domain"
	checkinout "staywithme/internal/modules/checkin/port/out"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/metrics"
)

const (
	maxEvaluateAttempts    = 4
	DefaultDispatchTimeout = 2 * time.Minute
)

// Outcome describes what one Evaluate call observed and did.
type Outcome struct {
	SessionID  string
	Source     domain.Source
	Previous   domain.Level
	Level      domain.Level
	Dispatched bool
	Expired    bool
}

// Coordinator is the single authority both timing sources call into. It keeps
// no session state of its own; every level transition is a compare-and-set
// against the store, so concurrent or repeated evaluations dispatch each level
// at most once between confirmations.
type Coordinator struct {
	clock           clock.Clock
	sessions        checkinout.SessionStore
	profiles        checkinout.ProfileSource
	dispatcher      checkinout.Dispatcher
	dispatchTimeout time.Duration
	log             *zap.SugaredLogger
}

func NewCoordinator(
	clock clock.Clock,
	sessions checkinout.SessionStore,
	profiles checkinout.ProfileSource,
	dispatcher checkinout.Dispatcher,
	dispatchTimeout time.Duration,
	log *zap.SugaredLogger,
) *Coordinator {
	if dispatchTimeout <= 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Coordinator{
		clock:           clock,
		sessions:        sessions,
		profiles:        profiles,
		dispatcher:      dispatcher,
		dispatchTimeout: dispatchTimeout,
		log:             log,
	}
}

func (c *Coordinator) Evaluate(ctx context.Context, sessionID string, source domain.Source) (Outcome, error) {
	if err := source.Validate(); err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{SessionID: sessionID, Source: source}
	for attempt := 1; attempt <= maxEvaluateAttempts; attempt++ {
		interval, err := c.profiles.CheckInInterval(ctx)
		if err != nil {
			c.observe(source, "error")
			return outcome, err
		}
		session, err := c.sessions.Get(ctx, sessionID)
		if err != nil {
			c.observe(source, "error")
			return outcome, err
		}
		// Elapsed time is taken after the read on every attempt so a
		// confirmation that landed in between is always observed.
		now := c.clock.Now()
		outcome.Previous, outcome.Level = session.Level, session.Level
		if !session.Active || session.Expired(now) {
			outcome.Expired = true
			c.observe(source, "expired")
			return outcome, nil
		}
		candidate := domain.LevelFor(session.Elapsed(now), interval)
		if candidate <= session.Level {
			c.observe(source, "noop")
			return outcome, nil
		}

		err = c.sessions.AdvanceLevel(ctx, session.ID, session.Level, candidate, session.Epoch)
		if errors.Is(err, apperrors.ErrStaleWrite) {
			metrics.StaleWrites.WithLabelValues(string(source)).Inc()
			c.log.Debugw("level write lost to a concurrent writer",
				"sessionID", session.ID, "source", source, "attempt", attempt, "from", session.Level, "to", candidate)
			continue
		}
		if err != nil {
			c.observe(source, "error")
			return outcome, err
		}

		outcome.Level = candidate
		outcome.Dispatched = true
		metrics.Escalations.WithLabelValues(strconv.Itoa(int(candidate)), string(source)).Inc()
		metrics.CurrentLevel.Set(float64(candidate))
		c.log.Infow("escalation level advanced",
			"sessionID", session.ID, "source", source, "from", session.Level, "to", candidate,
			"elapsed", session.Elapsed(now).Round(time.Second).String())

		session.Level = candidate
		c.dispatch(ctx, session, candidate, source)
		c.observe(source, "escalated")
		return outcome, nil
	}
	c.observe(source, "conflict")
	return outcome, nil
}

// dispatch runs detached from the caller's cancellation: the level is already
// committed and its side effect must still happen.
func (c *Coordinator) dispatch(ctx context.Context, session domain.Session, level domain.Level, source domain.Source) {
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.dispatchTimeout)
	defer cancel()
	if err := c.dispatcher.Dispatch(dispatchCtx, session, level); err != nil {
		c.log.Errorw("escalation dispatch failed",
			"sessionID", session.ID, "level", level, "source", source, "error", err)
	}
}

// Confirm resets the level and moves the elapsed-time baseline to now. The
// epoch bump makes any evaluation that read the session earlier lose its
// compare-and-set.
func (c *Coordinator) Confirm(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := c.sessions.Confirm(ctx, sessionID, c.clock.Now())
	if err != nil {
		return domain.Session{}, err
	}
	metrics.Confirmations.Inc()
	metrics.CurrentLevel.Set(0)
	c.log.Infow("check-in confirmed", "sessionID", session.ID, "epoch", session.Epoch)
	if err := c.dispatcher.RecordReset(ctx, session.ID); err != nil {
		c.log.Warnw("reset log entry not written", "sessionID", session.ID, "error", err)
	}
	return session, nil
}

func (c *Coordinator) observe(source domain.Source, outcome string) {
	metrics.Evaluations.WithLabelValues(string(source), outcome).Inc()
}
