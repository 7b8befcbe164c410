package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
	"github.com/tractorstats/tractor-stats/internal/platform/resilience"
	"github.com/tractorstats/tractor-stats/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookNotifier posts refresh summaries to a configured endpoint, e.g. a
// chat integration that announces recomputed dashboards.
type WebhookNotifier struct {
	client         *fasthttp.Client
	url            string
	token          string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookNotifier(cfg WebhookConfig, logger *logging.Logger) (*WebhookNotifier, error) {
	if logger == nil {
		logger = logging.Default()
	}

	endpoint := strings.TrimSpace(cfg.URL)
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, crerr.Wrapf(err, "parse webhook url %q", endpoint)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, crerr.Newf("webhook url %q uses unsupported scheme %q", endpoint, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return nil, crerr.Newf("webhook url %q has empty host", endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookNotifier{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		url:            endpoint,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

func (n *WebhookNotifier) PublishRefresh(ctx context.Context, result usecase.RefreshResult) error {
	if n.circuitEnabled {
		if err := n.breaker.Allow(); err != nil {
			n.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", n.breaker.State())
			return fmt.Errorf("webhook is temporarily unavailable: %w", err)
		}
	}

	body, err := buildPayload(result)
	if err != nil {
		return crerr.Wrap(err, "marshal refresh payload")
	}

	callErr := n.post(body)
	if n.circuitEnabled {
		if callErr != nil && stderrors.Is(callErr, errWebhookTransient) {
			n.breaker.RecordFailure()
		} else {
			n.breaker.RecordSuccess()
		}
	}
	if callErr != nil {
		n.logger.WarnContext(ctx, "webhook publish failed", "error", callErr)
		return callErr
	}

	n.logger.InfoContext(ctx, "refresh webhook published",
		"tasks", result.TaskCount,
		"failed", result.FailedCount,
	)
	return nil
}

func (n *WebhookNotifier) post(body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	req.SetBody(body)

	if err := n.client.DoTimeout(req, resp, n.timeout); err != nil {
		return fmt.Errorf("%w: post refresh summary: %v", errWebhookTransient, err)
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		if isRetryableStatus(status) {
			return fmt.Errorf("%w: webhook status=%d", errWebhookTransient, status)
		}
		return fmt.Errorf("webhook status=%d", status)
	}

	return nil
}

// buildPayload wraps the refresh result in an event envelope and appends a
// human-readable summary line for chat-style receivers.
func buildPayload(result usecase.RefreshResult) ([]byte, error) {
	raw, err := sonic.Marshal(result)
	if err != nil {
		return nil, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(`{"event":"stats.refresh","text":`)
	text, err := sonic.Marshal(summaryText(result))
	if err != nil {
		return nil, err
	}
	_, _ = buf.Write(text)
	_, _ = buf.WriteString(`,"result":`)
	_, _ = buf.Write(raw)
	_, _ = buf.WriteString(`}`)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func summaryText(result usecase.RefreshResult) string {
	parts := make([]string, 0, len(result.Tasks))
	for _, task := range result.Tasks {
		parts = append(parts, fmt.Sprintf("%d decks: %s (%d games, %d players)",
			task.Decks, task.Status, task.Games, task.Players))
	}
	return fmt.Sprintf("stats refresh finished, %d/%d ok. %s",
		result.SuccessCount, result.TaskCount, strings.Join(parts, "; "))
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}
