package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
	"github.com/tractorstats/tractor-stats/internal/platform/resilience"
	"github.com/tractorstats/tractor-stats/internal/usecase"
)

func sampleResult() usecase.RefreshResult {
	return usecase.RefreshResult{
		TaskCount:    2,
		SuccessCount: 2,
		WorkerCount:  2,
		Tasks: []usecase.RefreshTaskResult{
			{Decks: 2, Status: "success", Games: 10, Players: 4},
			{Decks: 3, Status: "success", Games: 10, Players: 6},
		},
	}
}

func TestWebhookNotifierRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewWebhookNotifier(WebhookConfig{URL: "ftp://example.com/hook"}, logging.NewNop())
	require.Error(t, err)

	_, err = NewWebhookNotifier(WebhookConfig{URL: "https://"}, logging.NewNop())
	require.Error(t, err)
}

func TestWebhookNotifierPublishesEnvelope(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(WebhookConfig{
		URL:     server.URL,
		Token:   "secret",
		Timeout: 2 * time.Second,
	}, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, notifier.PublishRefresh(context.Background(), sampleResult()))

	assert.Equal(t, "Bearer secret", gotAuth)

	var envelope struct {
		Event  string                `json:"event"`
		Text   string                `json:"text"`
		Result usecase.RefreshResult `json:"result"`
	}
	require.NoError(t, sonic.Unmarshal(gotBody, &envelope))
	assert.Equal(t, "stats.refresh", envelope.Event)
	assert.Contains(t, envelope.Text, "2/2 ok")
	assert.Equal(t, 2, envelope.Result.TaskCount)
	require.Len(t, envelope.Result.Tasks, 2)
	assert.Equal(t, 2, envelope.Result.Tasks[0].Decks)
}

func TestWebhookNotifierCircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(WebhookConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.Error(t, notifier.PublishRefresh(ctx, sampleResult()))
	}
	before := calls.Load()

	err = notifier.PublishRefresh(ctx, sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, before, calls.Load())
}

func TestWebhookNotifierNonRetryableStatusKeepsCircuitClosed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(WebhookConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, notifier.PublishRefresh(ctx, sampleResult()))

	// 4xx is the receiver rejecting the payload, not an outage; the next
	// publish must still reach the server.
	err = notifier.PublishRefresh(ctx, sampleResult())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "temporarily unavailable")
}
