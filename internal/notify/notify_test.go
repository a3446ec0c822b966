package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/decision"
	"github.com/fraudlens/fraudlens/internal/ledger"
	"github.com/fraudlens/fraudlens/internal/policy"
	"github.com/fraudlens/fraudlens/internal/subscriber"
)

type mockSlack struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *mockSlack) Post(_ context.Context, _ string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message)
	return nil
}

type mockEmail struct {
	mu         sync.Mutex
	recipients []string
	err        error
}

func (m *mockEmail) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recipients = append(m.recipients, to)
	return nil
}

type fixture struct {
	settings    *policy.MemoryStore
	subscribers *subscriber.MemoryStore
	slack       *mockSlack
	email       *mockEmail
	dispatcher  *Dispatcher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		settings:    policy.NewMemoryStore(),
		subscribers: subscriber.NewMemoryStore(),
		slack:       &mockSlack{},
		email:       &mockEmail{},
	}
	require.NoError(t, f.settings.Set(context.Background(), &policy.Setting{
		Key:   policy.KeySlackWebhookURL,
		Value: "https://hooks.slack.com/services/T0/B0/x",
	}))
	f.dispatcher = NewDispatcher(f.settings, f.subscribers, f.slack, f.email)
	return f
}

func (f *fixture) addSubscriber(t *testing.T, email, prefs string) {
	t.Helper()
	require.NoError(t, f.subscribers.Create(context.Background(), &subscriber.Subscriber{
		Email:       email,
		Preferences: json.RawMessage(prefs),
	}))
}

func txnWithScore(score float64) *ledger.ScoredTransaction {
	return &ledger.ScoredTransaction{
		ID:         7,
		CustomerID: 3,
		Merchant:   "Shady Deals",
		Amount:     420.69,
		FraudScore: score,
		Status:     decision.StatusDecline,
	}
}

func TestNotifySlackTierOnly(t *testing.T) {
	f := setup(t)
	f.addSubscriber(t, "ops@example.com", `{"email_high_risk":true}`)

	// 0.71 → 71%: above slack tier, below email tier
	f.dispatcher.Notify(context.Background(), txnWithScore(0.71))

	assert.Len(t, f.slack.messages, 1)
	assert.Empty(t, f.email.recipients)
}

func TestNotifyBothTiers(t *testing.T) {
	f := setup(t)
	f.addSubscriber(t, "ops@example.com", `{"email_high_risk":true}`)
	f.addSubscriber(t, "optedout@example.com", `{"email_high_risk":false}`)
	f.addSubscriber(t, "broken@example.com", `not json at all`)

	f.dispatcher.Notify(context.Background(), txnWithScore(0.91))

	assert.Len(t, f.slack.messages, 1)
	// Only the opted-in subscriber gets mail; the malformed row is skipped
	assert.Equal(t, []string{"ops@example.com"}, f.email.recipients)
}

func TestNotifyBelowBothTiers(t *testing.T) {
	f := setup(t)
	f.addSubscriber(t, "ops@example.com", `{"email_high_risk":true}`)

	f.dispatcher.Notify(context.Background(), txnWithScore(0.69))

	assert.Empty(t, f.slack.messages)
	assert.Empty(t, f.email.recipients)
}

func TestNotifyTierBoundariesExclusive(t *testing.T) {
	f := setup(t)
	f.addSubscriber(t, "ops@example.com", `{"email_high_risk":true}`)

	// Exactly at a tier threshold does not fire it
	f.dispatcher.Notify(context.Background(), txnWithScore(0.70))
	assert.Empty(t, f.slack.messages)

	f.dispatcher.Notify(context.Background(), txnWithScore(0.90))
	assert.Len(t, f.slack.messages, 1)
	assert.Empty(t, f.email.recipients)
}

func TestNotifyWithoutWebhookConfigured(t *testing.T) {
	f := setup(t)
	// Simulate an unconfigured deployment
	require.NoError(t, f.settings.Set(context.Background(), &policy.Setting{
		Key:   policy.KeySlackWebhookURL,
		Value: "",
	}))

	f.dispatcher.Notify(context.Background(), txnWithScore(0.99))
	assert.Empty(t, f.slack.messages)
}

func TestNotifySwallowsTransportErrors(t *testing.T) {
	f := setup(t)
	f.addSubscriber(t, "ops@example.com", `{"email_high_risk":true}`)
	f.slack.err = errors.New("webhook gone")
	f.email.err = errors.New("relay down")

	// Must not panic or propagate anything
	f.dispatcher.Notify(context.Background(), txnWithScore(0.95))
	assert.Empty(t, f.slack.messages)
	assert.Empty(t, f.email.recipients)
}

func TestNotifyReadsWebhookFresh(t *testing.T) {
	f := setup(t)

	f.dispatcher.Notify(context.Background(), txnWithScore(0.75))
	require.Len(t, f.slack.messages, 1)

	// Operator clears the webhook; the very next dispatch sees it
	require.NoError(t, f.settings.Set(context.Background(), &policy.Setting{
		Key:   policy.KeySlackWebhookURL,
		Value: "",
	}))
	f.dispatcher.Notify(context.Background(), txnWithScore(0.75))
	assert.Len(t, f.slack.messages, 1)
}

func TestWebhookPoster(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	poster := NewWebhookPoster()
	require.NoError(t, poster.Post(context.Background(), srv.URL, "hello"))
	assert.Equal(t, "hello", got["text"])
}

func TestWebhookPosterNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	poster := NewWebhookPoster()
	err := poster.Post(context.Background(), srv.URL, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}
