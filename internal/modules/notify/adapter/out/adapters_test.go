package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifyout "staywithme/internal/modules/notify/adapter/out"
	"staywithme/internal/modules/notify/domain"
	plugindto "staywithme/internal/modules/plugin/dto"
	profiledto "staywithme/internal/modules/profile/dto"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/sqlitedb"
)

var epoch = time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)

type countingNotifier struct{ shown int }

func (n *countingNotifier) Show(context.Context, domain.Notification) error {
	n.shown++
	return nil
}

func TestRateLimitedNotifierThrottlesOnlyNonUrgent(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClockAt(epoch)
	next := &countingNotifier{}
	n := notifyout.NewRateLimitedNotifier(next, clk, 30*time.Second)
	ctx := context.Background()
	gentle, _ := domain.LocalNotificationFor(domain.LevelGentle)
	urgent, _ := domain.LocalNotificationFor(domain.LevelUrgent)

	require.NoError(t, n.Show(ctx, gentle))
	require.ErrorIs(t, n.Show(ctx, gentle), domain.ErrRateLimited)
	require.NoError(t, n.Show(ctx, urgent))
	require.NoError(t, n.Show(ctx, urgent))

	clk.Advance(30 * time.Second)
	require.NoError(t, n.Show(ctx, gentle))
	assert.Equal(t, 4, next.shown)
}

func TestFileOutboxChannelAppendsAndTails(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClockAt(epoch)
	ch := notifyout.NewFileOutboxChannel(filepath.Join(t.TempDir(), "nested", "outbox.jsonl"), clk)
	ctx := context.Background()

	empty, err := ch.Tail(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, phone := range []string{"+1", "+2", "+3"} {
		require.NoError(t, ch.SendText(ctx, phone, "body "+phone))
		clk.Advance(time.Second)
	}
	tail, err := ch.Tail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "+2", tail[0].To)
	assert.Equal(t, "+3", tail[1].To)
	assert.Equal(t, epoch.Add(2*time.Second), tail[1].SentAt)
	assert.Equal(t, "outbox", ch.Name())
}

func TestGatewayChannelPostsMessage(t *testing.T) {
	t.Parallel()
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := notifyout.NewGatewayChannel(srv.URL, "+15550000", func() (string, error) { return "s3cret", nil }, time.Second)
	require.NoError(t, ch.SendText(context.Background(), "+15550101", "help"))
	assert.Equal(t, "Bearer s3cret", auth)
	assert.Equal(t, "+15550101", got["to"])
	assert.Equal(t, "+15550000", got["from"])
	assert.Equal(t, "help", got["body"])
}

func TestGatewayChannelClassifiesFailures(t *testing.T) {
	t.Parallel()
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	ch := notifyout.NewGatewayChannel(srv.URL, "", nil, time.Second)
	require.ErrorIs(t, ch.SendText(context.Background(), "+1", "x"), apperrors.ErrPermissionDenied)

	status = http.StatusBadRequest
	err := ch.SendText(context.Background(), "+1", "x")
	require.ErrorIs(t, err, apperrors.ErrDeliveryFailure)
	assert.Contains(t, err.Error(), "nope")
}

func TestSMSAddress(t *testing.T) {
	t.Parallel()
	addr, err := notifyout.SMSAddress("+1 (555) 010-0101", "@sms.example.net")
	require.NoError(t, err)
	assert.Equal(t, "15550100101@sms.example.net", addr)

	_, err = notifyout.SMSAddress("call me", "sms.example.net")
	require.ErrorIs(t, err, apperrors.ErrDeliveryFailure)
	_, err = notifyout.SMSAddress("+15550100", " ")
	require.ErrorIs(t, err, apperrors.ErrDeliveryFailure)
}

func TestSQLiteLogStoreListAndPrune(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := notifyout.NewSQLiteLogStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	entries := []domain.LogEntry{
		{ID: "a", SessionID: "s1", Kind: domain.KindGentle, At: epoch, Success: true},
		{ID: "b", SessionID: "s1", Kind: domain.KindSMS, At: epoch.Add(time.Hour), Success: false, ContactID: "c1", Message: "carrier down"},
		{ID: "c", SessionID: "s2", Kind: domain.KindReset, At: epoch.Add(2 * time.Hour), Success: true},
	}
	for _, e := range entries {
		require.NoError(t, store.Append(ctx, e))
	}

	s1, err := store.List(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, "b", s1[0].ID)
	assert.Equal(t, "c1", s1[0].ContactID)
	assert.False(t, s1[0].Success)
	assert.True(t, s1[0].At.Equal(epoch.Add(time.Hour)))

	all, err := store.List(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c", all[0].ID)

	removed, err := store.PruneBefore(ctx, epoch.Add(90*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	rest, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].ID)
}

type fakePlugins struct {
	err  error
	sent []plugindto.SendTextInput
}

func (p *fakePlugins) List(context.Context) ([]plugindto.PluginInfo, error)     { return nil, nil }
func (p *fakePlugins) Doctor(context.Context) ([]plugindto.DoctorResult, error) { return nil, nil }
func (p *fakePlugins) SendText(_ context.Context, in plugindto.SendTextInput) (plugindto.SendTextOutput, error) {
	if p.err != nil {
		return plugindto.SendTextOutput{}, p.err
	}
	p.sent = append(p.sent, in)
	return plugindto.SendTextOutput{PluginName: in.PluginName, MessageID: "m1"}, nil
}

func TestPluginChannelDelegatesToPlugin(t *testing.T) {
	t.Parallel()
	plugins := &fakePlugins{}
	ch := notifyout.NewPluginChannel(plugins, "sms-outbox")
	assert.Equal(t, "plugin:sms-outbox", ch.Name())
	require.NoError(t, ch.SendText(context.Background(), "+1", "help"))
	require.Len(t, plugins.sent, 1)
	assert.Equal(t, "sms-outbox", plugins.sent[0].PluginName)

	plugins.err = errors.New("plugin is disabled")
	require.ErrorIs(t, ch.SendText(context.Background(), "+1", "help"), apperrors.ErrDeliveryFailure)
}

type fakeProfileUsecase struct {
	profile  profiledto.ProfileOutput
	err      error
	contacts []profiledto.ContactOutput
	active   bool
}

func (f *fakeProfileUsecase) SaveProfile(context.Context, profiledto.ProfileInput) (profiledto.ProfileOutput, error) {
	return profiledto.ProfileOutput{}, nil
}
func (f *fakeProfileUsecase) GetProfile(context.Context) (profiledto.ProfileOutput, error) {
	return f.profile, f.err
}
func (f *fakeProfileUsecase) CheckInInterval(context.Context) (int, error) { return 30, nil }
func (f *fakeProfileUsecase) AddContact(context.Context, profiledto.AddContactInput) (profiledto.ContactOutput, error) {
	return profiledto.ContactOutput{}, nil
}
func (f *fakeProfileUsecase) ListContacts(_ context.Context, activeOnly bool) ([]profiledto.ContactOutput, error) {
	f.active = activeOnly
	return f.contacts, nil
}
func (f *fakeProfileUsecase) RemoveContact(context.Context, string) error { return nil }
func (f *fakeProfileUsecase) SetContactActive(context.Context, string, bool) (profiledto.ContactOutput, error) {
	return profiledto.ContactOutput{}, nil
}

func TestProfileReaderMapsProfileAndActiveContacts(t *testing.T) {
	t.Parallel()
	uc := &fakeProfileUsecase{
		profile:  profiledto.ProfileOutput{Name: "Sam", MedicalInfo: "Asthma", AlertTemplate: "[Your Name] is unresponsive"},
		contacts: []profiledto.ContactOutput{{ID: "c1", Name: "Ana", Phone: "+1", Priority: 1, Active: true}},
	}
	reader := notifyout.NewProfileReader(uc)

	msg, err := reader.MessageProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.MessageContext{Name: "Sam", MedicalInfo: "Asthma", AlertTemplate: "[Your Name] is unresponsive"}, msg)

	recipients, err := reader.ActiveRecipients(context.Background())
	require.NoError(t, err)
	assert.True(t, uc.active)
	assert.Equal(t, []domain.Recipient{{ContactID: "c1", Name: "Ana", Phone: "+1"}}, recipients)

	uc.err = apperrors.ErrNotFound
	_, err = reader.MessageProfile(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
