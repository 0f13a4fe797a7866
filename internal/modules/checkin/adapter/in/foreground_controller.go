package in

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"staywithme/internal/modules/checkin/dto"
	checkinin "staywithme/internal/modules/checkin/port/in"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
)

const (
	DefaultTickInterval   = time.Second
	defaultCallTimeout    = 30 * time.Second
	completeRetryInterval = 10 * time.Second
)

// ForegroundController keeps the total, check-in and urgent countdowns of the
// active session armed while the user has the app open. Every expiry is turned
// into an Evaluate call; the stored session decides what actually happens.
type ForegroundController struct {
	usecase checkinin.Usecase
	sched   clock.Scheduler
	tick    time.Duration
	log     *zap.SugaredLogger

	mu         sync.Mutex
	sessionGen uint64
	cycleGen   uint64
	sessionID  string
	status     dto.StatusOutput
	completed  bool
	completing bool
	lastErr    error
	total      clock.Timer
	ticker     clock.Timer
	checkIn    clock.Timer
	urgent     clock.Timer
	listener   func(dto.Snapshot)
}

func NewForegroundController(usecase checkinin.Usecase, sched clock.Scheduler, tick time.Duration, log *zap.SugaredLogger) *ForegroundController {
	if sched == nil {
		sched = clock.SystemClock{}
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ForegroundController{usecase: usecase, sched: sched, tick: tick, log: log}
}

// OnSnapshot registers the single listener notified after each state change.
// It is called without the controller lock held.
func (c *ForegroundController) OnSnapshot(fn func(dto.Snapshot)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

func (c *ForegroundController) Snapshot() dto.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Attach arms the countdowns for the active session. It is a no-op when the
// controller is already attached to that session.
func (c *ForegroundController) Attach(ctx context.Context) error {
	status, err := c.usecase.Status(ctx)
	if errors.Is(err, apperrors.ErrNoActiveSession) {
		c.Detach()
		c.publish(c.Snapshot())
		return nil
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.sessionID == status.Session.ID {
		c.mu.Unlock()
		return nil
	}
	c.disarmLocked()
	c.sessionGen++
	c.sessionID = status.Session.ID
	c.status = status
	c.completed = false
	c.completing = false
	c.lastErr = nil
	c.armSessionLocked()
	c.armCycleLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// Detach cancels every countdown. Callbacks already running observe the new
// generation and return without side effects.
func (c *ForegroundController) Detach() {
	c.mu.Lock()
	c.disarmLocked()
	c.sessionGen++
	c.sessionID = ""
	c.completing = false
	c.status = dto.StatusOutput{}
	c.mu.Unlock()
}

// Confirm checks in on the attached session and restarts the check-in cycle.
// The total countdown keeps running.
func (c *ForegroundController) Confirm(ctx context.Context) error {
	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()

	status, err := c.usecase.Confirm(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.sessionID != "" && c.sessionID == status.Session.ID {
		c.status = status
		c.lastErr = nil
		c.armCycleLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

func (c *ForegroundController) armSessionLocked() {
	gen := c.sessionGen
	now := c.sched.Now()
	c.total = c.sched.AfterFunc(nonNegative(c.status.Session.EndsAt.Sub(now)), func() { c.onTotal(gen) })
	c.ticker = c.sched.AfterFunc(c.tick, func() { c.onTick(gen) })
}

// armCycleLocked replaces the check-in and urgent countdowns using c.status.
// Only one of them is armed at a time: check-in first, urgent once the
// check-in countdown has fired or its deadline already passed.
func (c *ForegroundController) armCycleLocked() {
	c.stopCycleLocked()
	session, cycle := c.sessionGen, c.cycleGen
	now := c.sched.Now()
	if c.status.CheckInReachable && c.status.NextCheckInAt.After(now) {
		c.checkIn = c.sched.AfterFunc(c.status.NextCheckInAt.Sub(now), func() { c.onCheckIn(session, cycle) })
		return
	}
	c.armUrgentLocked(session, cycle, now)
}

func (c *ForegroundController) armUrgentLocked(session, cycle uint64, now time.Time) {
	if !c.status.UrgentReachable || !c.status.UrgentAt.After(now) {
		return
	}
	c.urgent = c.sched.AfterFunc(c.status.UrgentAt.Sub(now), func() { c.onUrgent(session, cycle) })
}

func (c *ForegroundController) stopCycleLocked() {
	c.cycleGen++
	if c.checkIn != nil {
		c.checkIn.Stop()
		c.checkIn = nil
	}
	if c.urgent != nil {
		c.urgent.Stop()
		c.urgent = nil
	}
}

func (c *ForegroundController) disarmLocked() {
	c.stopCycleLocked()
	if c.total != nil {
		c.total.Stop()
		c.total = nil
	}
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *ForegroundController) currentCycle(session, cycle uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionGen != session || c.cycleGen != cycle {
		return "", false
	}
	return c.sessionID, true
}

func (c *ForegroundController) onCheckIn(session, cycle uint64) {
	id, ok := c.currentCycle(session, cycle)
	if !ok {
		return
	}
	c.evaluate(id)

	c.mu.Lock()
	if c.sessionGen == session && c.cycleGen == cycle {
		c.checkIn = nil
		c.armUrgentLocked(session, cycle, c.sched.Now())
	}
	c.mu.Unlock()
	c.refresh(session)
}

func (c *ForegroundController) onUrgent(session, cycle uint64) {
	id, ok := c.currentCycle(session, cycle)
	if !ok {
		return
	}
	c.evaluate(id)

	c.mu.Lock()
	if c.sessionGen == session && c.cycleGen == cycle {
		c.urgent = nil
	}
	c.mu.Unlock()
	c.refresh(session)
}

func (c *ForegroundController) onTick(session uint64) {
	c.mu.Lock()
	if c.sessionGen != session {
		c.mu.Unlock()
		return
	}
	id := c.sessionID
	c.mu.Unlock()

	c.evaluate(id)
	c.refresh(session)

	c.mu.Lock()
	if c.sessionGen == session {
		c.ticker = c.sched.AfterFunc(c.tick, func() { c.onTick(session) })
	}
	c.mu.Unlock()
}

func (c *ForegroundController) onTotal(session uint64) {
	c.mu.Lock()
	if c.sessionGen != session {
		c.mu.Unlock()
		return
	}
	id := c.sessionID
	c.completing = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()
	_, err := c.usecase.Complete(ctx, id)

	c.mu.Lock()
	if c.sessionGen != session {
		c.mu.Unlock()
		return
	}
	c.completing = false
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		// The session stays attached and expired until a retry completes it.
		c.log.Errorw("complete session", "session", id, "retryIn", completeRetryInterval, "error", err)
		c.lastErr = err
		c.total = c.sched.AfterFunc(completeRetryInterval, func() { c.onTotal(session) })
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
		return
	}
	if err != nil {
		c.log.Errorw("complete session", "session", id, "error", err)
	}
	c.disarmLocked()
	c.sessionGen++
	c.completed = err == nil
	c.lastErr = err
	c.sessionID = ""
	c.status = dto.StatusOutput{}
	snap := c.snapshotLocked()
	snap.SessionID = id
	c.mu.Unlock()

	c.publish(snap)
}

func (c *ForegroundController) evaluate(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()
	out, err := c.usecase.Evaluate(ctx, id, dto.SourceForeground)
	if err != nil {
		c.log.Warnw("foreground evaluation failed", "session", id, "error", err)
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return
	}
	if out.Dispatched {
		c.log.Infow("escalated", "session", id, "from", out.PreviousLevel, "to", out.Level)
	}
}

// refresh reloads the stored status. A confirmation made elsewhere moves the
// deadlines, in which case the check-in cycle is re-armed from the new values.
// A session ended elsewhere detaches the controller.
func (c *ForegroundController) refresh(session uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()
	status, err := c.usecase.Status(ctx)

	c.mu.Lock()
	if c.sessionGen != session {
		c.mu.Unlock()
		return
	}
	switch {
	case c.completing:
		// onTotal owns the end of the session.
	case errors.Is(err, apperrors.ErrNoActiveSession) || (err == nil && status.Session.ID != c.sessionID):
		c.log.Infow("session ended elsewhere", "session", c.sessionID)
		c.disarmLocked()
		c.sessionGen++
		c.sessionID = ""
		c.status = dto.StatusOutput{}
	case err != nil:
		c.lastErr = err
	default:
		moved := !status.NextCheckInAt.Equal(c.status.NextCheckInAt)
		c.status = status
		if moved {
			c.armCycleLocked()
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

func (c *ForegroundController) snapshotLocked() dto.Snapshot {
	snap := dto.Snapshot{
		SessionID: c.sessionID,
		Active:    c.sessionID != "",
		Completed: c.completed,
		Err:       c.lastErr,
	}
	if !snap.Active {
		return snap
	}
	snap.Level = c.status.Level
	snap.LevelName = c.status.LevelName
	snap.EndsAt = c.status.Session.EndsAt
	snap.Remaining = nonNegative(snap.EndsAt.Sub(c.sched.Now()))
	if c.checkIn != nil {
		snap.NextCheckInAt = c.status.NextCheckInAt
	}
	if c.urgent != nil {
		snap.UrgentAt = c.status.UrgentAt
	}
	return snap
}

func (c *ForegroundController) publish(snap dto.Snapshot) {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
