package sheet

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
	"github.com/tractorstats/tractor-stats/internal/platform/resilience"
)

const (
	decksColumn  = "# decks"
	pointsColumn = "Points"
	resultColumn = "Result"

	maxResponseBytes = 10 << 20
)

var errSheetTransient = crerr.New("sheet transient failure")

// attackerColumns and defenderColumns in seat order; the first defender
// column is the dealer seat.
var attackerColumns = []string{"A1", "A2", "A3", "A4", "A5"}
var defenderColumns = []string{"D1", "D2", "D3", "D4"}

type ClientConfig struct {
	HTTPClient     *http.Client
	CSVURL         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads game records from a published spreadsheet CSV export. It
// implements gamerecord.Source.
type Client struct {
	httpClient     *http.Client
	csvURL         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		csvURL:         strings.TrimSpace(cfg.CSVURL),
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) List(ctx context.Context) ([]gamerecord.Record, error) {
	if c.csvURL == "" {
		return nil, fmt.Errorf("sheet csv url is not configured")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sheet circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("record sheet is temporarily unavailable: %w", err)
		}
	}

	out, err, _ := c.flight.Do(c.csvURL, func() (any, error) {
		raw, reqErr := c.fetch(ctx)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errSheetTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	return parseRecords(raw)
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.csvURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSheetTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSheetTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: sheet status=%d", errSheetTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("sheet status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("sheet request failed")
	}
	c.logger.WarnContext(ctx, "sheet request failed", "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

// parseRecords decodes the CSV export. Malformed rows are kept as records
// that fail validation so the aggregator can count them as skipped instead
// of losing them silently here.
func parseRecords(raw []byte) ([]gamerecord.Record, error) {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{decksColumn, pointsColumn, resultColumn, attackerColumns[0], defenderColumns[0]} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]gamerecord.Record, 0, 256)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}

		record := gamerecord.Record{ID: fmt.Sprintf("row-%d", line)}

		if decks, convErr := strconv.Atoi(field(row, decksColumn)); convErr == nil {
			record.Decks = decks
		}
		for _, column := range attackerColumns {
			if name := field(row, column); name != "" {
				record.Attackers = append(record.Attackers, name)
			}
		}
		for _, column := range defenderColumns {
			if name := field(row, column); name != "" {
				record.Defenders = append(record.Defenders, name)
			}
		}

		record.Points = gamerecord.PointsUnknown
		if points, convErr := strconv.Atoi(field(row, pointsColumn)); convErr == nil {
			record.Points = points
		}

		if result, parseErr := gamerecord.ParseResult(field(row, resultColumn)); parseErr == nil {
			record.Result = result
		}

		records = append(records, record)
	}

	return records, nil
}
