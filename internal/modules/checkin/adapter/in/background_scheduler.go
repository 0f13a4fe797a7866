package in

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"staywithme/internal/modules/checkin/dto"
	checkinin "staywithme/internal/modules/checkin/port/in"
	notifyin "staywithme/internal/modules/notify/port/in"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/metrics"
)

const DefaultMonitorInterval = 15 * time.Minute

// BackgroundScheduler evaluates the active session periodically while the app
// is not in the foreground. Every pass is independent; failures are logged and
// the next tick tries again.
type BackgroundScheduler struct {
	Checkins  checkinin.Usecase
	Notify    notifyin.Usecase
	Clock     clock.Clock
	Interval  time.Duration
	Retention time.Duration
	Log       *zap.SugaredLogger
}

// Pass reports what one monitor pass did.
type Pass struct {
	SessionID       string
	Completed       bool
	Evaluated       bool
	Level           int
	Dispatched      bool
	LocationUpdated bool
	Pruned          int64
}

func (s BackgroundScheduler) Start(ctx context.Context) {
	log := s.logger()
	if s.Interval <= 0 {
		s.Interval = DefaultMonitorInterval
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Infow("Starting background monitor", "interval", s.Interval.String())
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Infow("Background monitor stopping (context done)")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s BackgroundScheduler) RunOnce(ctx context.Context) Pass {
	log := s.logger()
	metrics.MonitorTicks.Inc()
	var pass Pass

	status, err := s.Checkins.Status(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNoActiveSession):
		metrics.CurrentLevel.Set(0)
	case err != nil:
		log.Errorw("Failed loading session status", "error", err)
	case status.Expired:
		pass.SessionID = status.Session.ID
		completed, err := s.Checkins.Complete(ctx, status.Session.ID)
		if err != nil {
			log.Errorw("Failed completing session", "session", status.Session.ID, "error", err)
			break
		}
		pass.Completed = completed
		metrics.CurrentLevel.Set(0)
	default:
		pass.SessionID = status.Session.ID
		updated, err := s.Checkins.RefreshLocation(ctx)
		if err != nil {
			log.Warnw("Location refresh failed", "session", status.Session.ID, "error", err)
		}
		pass.LocationUpdated = updated
		out, err := s.Checkins.Evaluate(ctx, status.Session.ID, dto.SourceBackground)
		if err != nil {
			log.Errorw("Background evaluation failed", "session", status.Session.ID, "error", err)
			break
		}
		pass.Evaluated = true
		pass.Level = out.Level
		pass.Dispatched = out.Dispatched
		if out.Expired {
			metrics.CurrentLevel.Set(0)
		} else {
			metrics.CurrentLevel.Set(float64(out.Level))
		}
	}

	pass.Pruned = s.prune(ctx, log)
	return pass
}

func (s BackgroundScheduler) prune(ctx context.Context, log *zap.SugaredLogger) int64 {
	if s.Notify == nil || s.Retention <= 0 {
		return 0
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	n, err := s.Notify.PruneLogs(ctx, now.Add(-s.Retention))
	if err != nil {
		log.Warnw("Pruning notification log failed", "error", err)
		return 0
	}
	if n > 0 {
		log.Debugw("Pruned notification log", "removed", n)
	}
	return n
}

func (s BackgroundScheduler) logger() *zap.SugaredLogger {
	if s.Log == nil {
		return zap.NewNop().Sugar()
	}
	return s.Log.With("component", "BackgroundScheduler")
}
