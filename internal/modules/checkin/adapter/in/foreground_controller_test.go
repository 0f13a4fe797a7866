package in_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkinin "staywithme/internal/modules/checkin/adapter/in"
	"staywithme/internal/modules/checkin/domain"
	"staywithme/internal/modules/checkin/dto"
	checkinport "staywithme/internal/modules/checkin/port/in"
)

type snapshotLog struct {
	mu    sync.Mutex
	snaps []dto.Snapshot
}

func (l *snapshotLog) record(s dto.Snapshot) {
	l.mu.Lock()
	l.snaps = append(l.snaps, s)
	l.mu.Unlock()
}

func (l *snapshotLog) last() dto.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.snaps) == 0 {
		return dto.Snapshot{}
	}
	return l.snaps[len(l.snaps)-1]
}

// flakyCompleter fails the first Complete call.
type flakyCompleter struct {
	checkinport.Usecase
	mu    sync.Mutex
	calls int
}

func (f *flakyCompleter) Complete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		return false, errors.New("database is locked")
	}
	return f.Usecase.Complete(ctx, id)
}

func startSession(t *testing.T, h *harness, duration time.Duration) dto.SessionOutput {
	t.Helper()
	out, err := h.uc.Start(context.Background(), dto.StartInput{Duration: duration})
	require.NoError(t, err)
	return out
}

func TestForegroundControllerRunsFullLadderAndCompletesOnce(t *testing.T) {
	h := newHarness(t, "")
	session := startSession(t, h, 2*time.Hour)
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, 5*time.Minute, nil)
	snaps := &snapshotLog{}
	ctrl.OnSnapshot(snaps.record)
	require.NoError(t, ctrl.Attach(context.Background()))

	first := snaps.last()
	assert.Equal(t, session.ID, first.SessionID)
	assert.True(t, first.Active)
	assert.Equal(t, start.Add(30*time.Minute), first.NextCheckInAt)
	assert.True(t, first.UrgentAt.IsZero())
	assert.Equal(t, 2*time.Hour, first.Remaining)

	h.clk.Advance(30 * time.Minute)
	assert.Equal(t, []domain.Level{domain.LevelGentle}, h.dispatcher.Levels())
	afterCheckIn := ctrl.Snapshot()
	assert.Equal(t, 1, afterCheckIn.Level)
	assert.True(t, afterCheckIn.NextCheckInAt.IsZero())
	assert.Equal(t, start.Add(45*time.Minute), afterCheckIn.UrgentAt)

	h.clk.Advance(15 * time.Minute)
	assert.Equal(t, []domain.Level{1, 2}, h.dispatcher.Levels())

	h.clk.Advance(75 * time.Minute)
	assert.Equal(t, []domain.Level{1, 2, 3, 4}, h.dispatcher.Levels())
	assert.Equal(t, 1, h.dispatcher.Completed())

	final := snaps.last()
	assert.True(t, final.Completed)
	assert.False(t, final.Active)
	assert.Equal(t, session.ID, final.SessionID)
	assert.Zero(t, h.clk.Pending())

	h.clk.Advance(time.Hour)
	assert.Equal(t, 1, h.dispatcher.Completed())
}

func TestForegroundControllerConfirmRearmsOnlyTheCycle(t *testing.T) {
	h := newHarness(t, "")
	startSession(t, h, 2*time.Hour)
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, time.Hour, nil)
	require.NoError(t, ctrl.Attach(context.Background()))

	h.clk.Advance(40 * time.Minute)
	assert.Equal(t, []domain.Level{1}, h.dispatcher.Levels())
	require.NoError(t, ctrl.Confirm(context.Background()))

	snap := ctrl.Snapshot()
	assert.Equal(t, 0, snap.Level)
	assert.Equal(t, start.Add(70*time.Minute), snap.NextCheckInAt)
	assert.True(t, snap.UrgentAt.IsZero())
	assert.Equal(t, start.Add(2*time.Hour), snap.EndsAt)
	assert.Equal(t, 80*time.Minute, snap.Remaining)

	h.clk.Advance(29 * time.Minute)
	assert.Equal(t, []domain.Level{1}, h.dispatcher.Levels())
	h.clk.Advance(time.Minute)
	assert.Equal(t, []domain.Level{1, 1}, h.dispatcher.Levels())
}

func TestForegroundControllerAttachIsIdempotent(t *testing.T) {
	h := newHarness(t, "")
	startSession(t, h, time.Hour)
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.Attach(ctx))
	armed := h.clk.Pending()
	assert.Equal(t, 3, armed, "total, tick and check-in countdowns")
	require.NoError(t, ctrl.Attach(ctx))
	assert.Equal(t, armed, h.clk.Pending())
}

func TestForegroundControllerDetachCancelsEverything(t *testing.T) {
	h := newHarness(t, "")
	startSession(t, h, time.Hour)
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, time.Minute, nil)
	require.NoError(t, ctrl.Attach(context.Background()))

	ctrl.Detach()
	assert.Zero(t, h.clk.Pending())
	h.clk.Advance(3 * time.Hour)
	assert.Empty(t, h.dispatcher.Levels())
	assert.Zero(t, h.dispatcher.Completed())
	assert.False(t, ctrl.Snapshot().Active)
}

func TestForegroundControllerWithoutSessionStaysIdle(t *testing.T) {
	h := newHarness(t, "")
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, time.Minute, nil)
	snaps := &snapshotLog{}
	ctrl.OnSnapshot(snaps.record)

	require.NoError(t, ctrl.Attach(context.Background()))
	assert.Zero(t, h.clk.Pending())
	assert.False(t, snaps.last().Active)
}

func TestForegroundControllerFollowsConfirmationMadeElsewhere(t *testing.T) {
	h := newHarness(t, "")
	startSession(t, h, 2*time.Hour)
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, 10*time.Minute, nil)
	require.NoError(t, ctrl.Attach(context.Background()))

	h.clk.Advance(25 * time.Minute)
	_, err := h.uc.Confirm(context.Background(), "")
	require.NoError(t, err)

	h.clk.Advance(5 * time.Minute)
	assert.Empty(t, h.dispatcher.Levels())
	assert.Equal(t, start.Add(55*time.Minute), ctrl.Snapshot().NextCheckInAt)

	h.clk.Advance(25 * time.Minute)
	assert.Equal(t, []domain.Level{1}, h.dispatcher.Levels())
}

func TestForegroundControllerDetachesWhenSessionEndsElsewhere(t *testing.T) {
	h := newHarness(t, "")
	startSession(t, h, 2*time.Hour)
	ctrl := checkinin.NewForegroundController(h.uc, h.clk, time.Minute, nil)
	require.NoError(t, ctrl.Attach(context.Background()))

	_, err := h.uc.End(context.Background())
	require.NoError(t, err)
	h.clk.Advance(time.Minute)

	assert.False(t, ctrl.Snapshot().Active)
	assert.Zero(t, h.clk.Pending())
	h.clk.Advance(time.Hour)
	assert.Empty(t, h.dispatcher.Levels())
}

func TestForegroundControllerRetriesFailedCompletion(t *testing.T) {
	h := newHarness(t, "")
	session := startSession(t, h, 2*time.Hour)
	flaky := &flakyCompleter{Usecase: h.uc}
	ctrl := checkinin.NewForegroundController(flaky, h.clk, time.Hour, nil)
	require.NoError(t, ctrl.Attach(context.Background()))

	h.clk.Advance(2 * time.Hour)
	assert.Zero(t, h.dispatcher.Completed())
	snap := ctrl.Snapshot()
	assert.True(t, snap.Active, "failed completion keeps the session attached")
	assert.Equal(t, session.ID, snap.SessionID)
	assert.EqualError(t, snap.Err, "database is locked")

	h.clk.Advance(time.Minute)
	assert.Equal(t, 1, h.dispatcher.Completed())
	final := ctrl.Snapshot()
	assert.True(t, final.Completed)
	assert.False(t, final.Active)
	assert.Zero(t, h.clk.Pending())

	h.clk.Advance(time.Hour)
	assert.Equal(t, 1, h.dispatcher.Completed())
}
