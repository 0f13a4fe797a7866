package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifyoutadapter "staywithme/internal/modules/notify/adapter/out"
	"staywithme/internal/modules/notify/domain"
	"staywithme/internal/modules/notify/service"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/sqlitedb"
)

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "log-" + strconv.Itoa(s.n)
}

type memLogs struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	failOn  domain.Kind
}

func (m *memLogs) Append(_ context.Context, e domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && e.Kind == m.failOn {
		return errors.New("disk full")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLogs) List(_ context.Context, sessionID string, limit int) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.LogEntry{}
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if sessionID == "" || m.entries[i].SessionID == sessionID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memLogs) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	var removed int64
	for _, e := range m.entries {
		if e.At.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *memLogs) kinds() []domain.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Kind, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Kind)
	}
	return out
}

type recordingNotifier struct {
	shown []domain.Notification
	err   error
}

func (n *recordingNotifier) Show(_ context.Context, notification domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.shown = append(n.shown, notification)
	return nil
}

type fakeChannel struct {
	failFor map[string]error
	sent    map[string]string
}

func (c *fakeChannel) Name() string { return "fake" }

func (c *fakeChannel) SendText(_ context.Context, phone, body string) error {
	if err, ok := c.failFor[phone]; ok {
		return err
	}
	if c.sent == nil {
		c.sent = map[string]string{}
	}
	c.sent[phone] = body
	return nil
}

// hangingChannel blocks every send until its context ends.
type hangingChannel struct{}

func (hangingChannel) Name() string { return "hanging" }

func (hangingChannel) SendText(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakeProfiles struct {
	profile    domain.MessageContext
	profileErr error
	recipients []domain.Recipient
}

func (p fakeProfiles) MessageProfile(context.Context) (domain.MessageContext, error) {
	return p.profile, p.profileErr
}

func (p fakeProfiles) ActiveRecipients(context.Context) ([]domain.Recipient, error) {
	return p.recipients, nil
}

type fixture struct {
	clock    *clockwork.FakeClock
	logs     *memLogs
	notifier *recordingNotifier
	channel  *fakeChannel
	dispatch *service.Dispatcher
}

func newFixture(profiles fakeProfiles) *fixture {
	f := &fixture{
		clock:    clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)),
		logs:     &memLogs{},
		notifier: &recordingNotifier{},
		channel:  &fakeChannel{},
	}
	f.dispatch = service.NewDispatcher(f.clock, &seqID{}, f.notifier, f.channel, f.logs, profiles, time.Second, nil)
	return f
}

func TestDispatchLocalLevelsShowNotificationAndLogOnce(t *testing.T) {
	t.Parallel()
	cases := []struct {
		level  int
		kind   domain.Kind
		urgent bool
	}{
		{level: 1, kind: domain.KindGentle, urgent: false},
		{level: 2, kind: domain.KindUrgent, urgent: true},
		{level: 3, kind: domain.KindEmergency, urgent: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.kind), func(t *testing.T) {
			t.Parallel()
			f := newFixture(fakeProfiles{})
			result, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: tc.level})
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, tc.kind, result.Kind)
			require.Len(t, f.notifier.shown, 1)
			assert.Equal(t, tc.urgent, f.notifier.shown[0].Urgent)
			assert.Equal(t, []domain.Kind{tc.kind}, f.logs.kinds())
			assert.Empty(t, f.channel.sent)
		})
	}
}

func TestDispatchNotifierFailureIsLoggedNotReturned(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{})
	f.notifier.err = domain.ErrRateLimited
	result, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 1})
	require.NoError(t, err)
	assert.False(t, result.Success)

	entries, err := f.dispatch.Logs(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Contains(t, entries[0].Message, "rate limited")
}

func TestDispatchRejectsUnknownLevel(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{})
	_, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 5})
	require.ErrorIs(t, err, domain.ErrUnknownLevel)
	assert.Empty(t, f.logs.kinds())
}

func TestBroadcastContinuesPastFailedContact(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{
		profile: domain.MessageContext{Name: "Sam", MedicalInfo: "Asthma"},
		recipients: []domain.Recipient{
			{ContactID: "c1", Name: "Ana", Phone: "+15550101"},
			{ContactID: "c2", Name: "Ben", Phone: "+15550102"},
			{ContactID: "c3", Name: "Cy", Phone: "+15550103"},
		},
	})
	f.channel.failFor = map[string]error{"+15550102": errors.New("carrier down")}

	result, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 4, Location: "40.7,-74.0", Substances: "alcohol"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, domain.KindBroadcast, result.Kind)

	assert.Equal(t, []domain.Kind{domain.KindSMS, domain.KindSMS, domain.KindSMS, domain.KindBroadcast}, f.logs.kinds())
	failed := f.logs.entries[1]
	assert.Equal(t, "c2", failed.ContactID)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Message, apperrors.ErrDeliveryFailure.Error())

	body := f.channel.sent["+15550101"]
	assert.Contains(t, body, "Sam")
	assert.Contains(t, body, "Asthma")
	assert.Contains(t, body, "alcohol")
	assert.Contains(t, body, "https://maps.google.com/?q=40.7,-74.0")
	assert.Empty(t, f.notifier.shown)
}

func TestBroadcastWithoutContactsStillLogsLevel(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{})
	result, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 4})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []domain.Kind{domain.KindBroadcast}, f.logs.kinds())
	assert.Contains(t, f.logs.entries[0].Message, domain.ErrNoContacts.Error())
}

func TestBroadcastWithoutChannelReportsPermissionDenied(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC))
	logs := &memLogs{}
	profiles := fakeProfiles{recipients: []domain.Recipient{
		{ContactID: "c1", Phone: "+15550101"},
		{ContactID: "c2", Phone: "+15550102"},
	}}
	d := service.NewDispatcher(clk, &seqID{}, &recordingNotifier{}, nil, logs, profiles, time.Second, nil)
	result, err := d.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 4})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Failed)
	assert.Contains(t, result.Message, apperrors.ErrPermissionDenied.Error())

	assert.Equal(t, []domain.Kind{domain.KindSMS, domain.KindSMS, domain.KindBroadcast}, logs.kinds())
	for i, contactID := range []string{"c1", "c2"} {
		entry := logs.entries[i]
		assert.Equal(t, contactID, entry.ContactID)
		assert.False(t, entry.Success)
		assert.Contains(t, entry.Message, apperrors.ErrPermissionDenied.Error())
	}
}

func TestBroadcastOutlivesCallerDeadline(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	logs, err := notifyoutadapter.NewSQLiteLogStore(db)
	require.NoError(t, err)

	profiles := fakeProfiles{recipients: []domain.Recipient{
		{ContactID: "c1", Phone: "+15550101"},
		{ContactID: "c2", Phone: "+15550102"},
		{ContactID: "c3", Phone: "+15550103"},
	}}
	clk := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC))
	d := service.NewDispatcher(clk, &seqID{}, &recordingNotifier{}, hangingChannel{}, logs, profiles, 200*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	result, err := d.Dispatch(ctx, domain.DispatchRequest{SessionID: "s1", Level: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Failed)

	entries, err := d.Logs(context.Background(), "s1", 0)
	require.NoError(t, err)
	counts := map[domain.Kind]int{}
	for _, entry := range entries {
		counts[entry.Kind]++
		if entry.Kind == domain.KindSMS {
			assert.Contains(t, entry.Message, context.DeadlineExceeded.Error())
		}
	}
	assert.Equal(t, map[domain.Kind]int{domain.KindSMS: 3, domain.KindBroadcast: 1}, counts)
}

func TestBroadcastWithMissingProfileUsesDefaultText(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{
		profileErr: apperrors.ErrNotFound,
		recipients: []domain.Recipient{{ContactID: "c1", Phone: "+15550101"}},
	})
	result, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Contains(t, f.channel.sent["+15550101"], "Please check on them immediately.")
}

func TestDispatchReturnsLevelLogWriteFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{})
	f.logs.failOn = domain.KindUrgent
	_, err := f.dispatch.Dispatch(context.Background(), domain.DispatchRequest{SessionID: "s1", Level: 2})
	require.Error(t, err)
}

func TestCompletedResetAndPrune(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{})
	ctx := context.Background()

	require.NoError(t, f.dispatch.RecordReset(ctx, "s1"))
	f.clock.Advance(48 * time.Hour)
	require.NoError(t, f.dispatch.NotifyCompleted(ctx, "s1"))
	require.Len(t, f.notifier.shown, 1)
	assert.Equal(t, domain.CompletedNotice().Title, f.notifier.shown[0].Title)
	assert.Equal(t, []domain.Kind{domain.KindReset, domain.KindCompleted}, f.logs.kinds())

	removed, err := f.dispatch.Prune(ctx, f.clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Equal(t, []domain.Kind{domain.KindCompleted}, f.logs.kinds())
}

func TestPreviewUsesProfileTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(fakeProfiles{profile: domain.MessageContext{
		Name:          "Sam",
		MedicalInfo:   "Epilepsy",
		AlertTemplate: "[Your Name] needs help. [Medical Info text here]",
	}})
	text, err := f.dispatch.Preview(context.Background(), domain.MessageContext{Notes: "at the lake"})
	require.NoError(t, err)
	assert.Contains(t, text, "Sam needs help. Epilepsy")
	assert.Contains(t, text, "at the lake")
}
