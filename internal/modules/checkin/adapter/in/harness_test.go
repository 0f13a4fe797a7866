package in_test

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	checkinoutadapter "staywithme/internal/modules/checkin/adapter/out"
	"staywithme/internal/modules/checkin/domain"
	checkinin "staywithme/internal/modules/checkin/port/in"
	"staywithme/internal/modules/checkin/service"
	"staywithme/internal/modules/checkin/usecase"
	"staywithme/internal/platform/clock"
	"staywithme/internal/platform/sqlitedb"
)

var start = time.Date(2026, 8, 21, 22, 15, 0, 0, time.UTC)

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "session-" + strconv.Itoa(s.n)
}

type intervalProfile int

func (p intervalProfile) CheckInInterval(context.Context) (int, error) { return int(p), nil }

func (p intervalProfile) HasProfile(context.Context) (bool, error) { return true, nil }

type locationStub struct{ location string }

func (l locationStub) LastKnown(context.Context) (string, bool, error) {
	return l.location, l.location != "", nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	levels    []domain.Level
	completed int
	resets    int
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ domain.Session, level domain.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.levels = append(d.levels, level)
	return nil
}

func (d *recordingDispatcher) NotifyCompleted(context.Context, string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completed++
	return nil
}

func (d *recordingDispatcher) RecordReset(context.Context, string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
	return nil
}

func (d *recordingDispatcher) Levels() []domain.Level {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Level(nil), d.levels...)
}

func (d *recordingDispatcher) Completed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completed
}

// stepClock moves a clockwork fake clock from one armed deadline to the next
// and waits for the callbacks due at each step, which clockwork runs on their
// own goroutines. Callbacks observe Now() equal to their deadline.
type stepClock struct {
	*clockwork.FakeClock
	t      testing.TB
	mu     sync.Mutex
	timers []*stepTimer
}

type stepTimer struct {
	clock.Timer
	clk     *stepClock
	due     time.Time
	stopped bool
	done    bool
}

func newStepClock(t testing.TB, at time.Time) *stepClock {
	return &stepClock{FakeClock: clockwork.NewFakeClockAt(at), t: t}
}

func (c *stepClock) AfterFunc(d time.Duration, fn func()) clock.Timer {
	timer := &stepTimer{clk: c, due: c.Now().Add(d)}
	c.mu.Lock()
	c.timers = append(c.timers, timer)
	c.mu.Unlock()
	timer.Timer = c.FakeClock.AfterFunc(d, func() {
		fn()
		c.mu.Lock()
		timer.done = true
		c.mu.Unlock()
	})
	return timer
}

func (t *stepTimer) Stop() bool {
	if !t.Timer.Stop() {
		return false
	}
	t.clk.mu.Lock()
	t.stopped = true
	t.clk.mu.Unlock()
	return true
}

// Pending counts timers that are neither stopped nor finished.
func (c *stepClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped && !timer.done {
			n++
		}
	}
	return n
}

func (c *stepClock) Advance(d time.Duration) {
	c.t.Helper()
	target := c.Now().Add(d)
	for {
		c.settle()
		now := c.Now()
		next, ok := c.nextDue(now, target)
		if !ok {
			break
		}
		c.FakeClock.Advance(next.Sub(now))
	}
	c.FakeClock.Advance(target.Sub(c.Now()))
	c.settle()
}

func (c *stepClock) nextDue(now, target time.Time) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var next time.Time
	found := false
	for _, timer := range c.timers {
		if timer.stopped || timer.done || !timer.due.After(now) || timer.due.After(target) {
			continue
		}
		if !found || timer.due.Before(next) {
			next, found = timer.due, true
		}
	}
	return next, found
}

// settle waits until every timer due by now has been stopped or has run.
func (c *stepClock) settle() {
	c.t.Helper()
	require.Eventually(c.t, func() bool {
		now := c.Now()
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, timer := range c.timers {
			if !timer.stopped && !timer.done && !timer.due.After(now) {
				return false
			}
		}
		return true
	}, 5*time.Second, time.Millisecond, "callbacks due by %s did not finish", c.Now())
}

type harness struct {
	uc         checkinin.Usecase
	clk        *stepClock
	dispatcher *recordingDispatcher
}

func newHarness(t *testing.T, location string) *harness {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "checkin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := checkinoutadapter.NewSQLiteSessionStore(db)
	require.NoError(t, err)

	h := &harness{clk: newStepClock(t, start), dispatcher: &recordingDispatcher{}}
	profiles := intervalProfile(30)
	log := zaptest.NewLogger(t).Sugar()
	sessions := service.NewSessionService(h.clk, &seqID{}, sqlitedb.NewTxManager(db), store, profiles, locationStub{location: location}, h.dispatcher, log.Named("session"))
	coordinator := service.NewCoordinator(h.clk, store, profiles, h.dispatcher, time.Second, log.Named("escalation"))
	h.uc = usecase.NewInteractor(sessions, coordinator)
	return h
}
