package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/leaderboard"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

const maxErrorBody = 256

// StatusError is a non-2xx response from the values API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// valuesResponse is the subset of the values API response we read.
// Cells are decoded loosely: FORMATTED_VALUE gives strings, but numbers and
// booleans show up with other render options.
type valuesResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// Client fetches scores from the Google Sheets values API.
type Client struct {
	cfg     config.SourceConfig
	schema  Schema
	http    *http.Client
	limiter *rate.Limiter
	clock   clockwork.Clock
	tracer  trace.Tracer
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client. The API key is still injected.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		clone := *hc
		clone.Transport = &keyRoundTripper{base: base, key: c.cfg.APIKey}
		c.http = &clone
	}
}

// WithClock sets the clock used to stamp snapshots.
func WithClock(clk clockwork.Clock) ClientOption {
	return func(c *Client) { c.clock = clk }
}

// WithTracer sets the tracer for fetch spans. Defaults to the global provider.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

// NewClient builds a Client for the given source and schema.
func NewClient(cfg config.SourceConfig, schema Schema, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" || cfg.SheetID == "" || cfg.Range == "" {
		return nil, fmt.Errorf("sheets: base_url, sheet_id and range are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("sheets: base_url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	c := &Client{
		cfg:     cfg,
		schema:  schema,
		limiter: newLimiter(cfg.MinRequestInterval),
		clock:   clockwork.NewRealClock(),
		tracer:  otel.Tracer("github.com/montenegronyc/scoreboard/internal/sheets"),
	}
	c.http = &http.Client{
		Transport: &keyRoundTripper{base: http.DefaultTransport, key: cfg.APIKey},
		Timeout:   timeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// newLimiter allows one request immediately, then one per interval.
// A zero interval disables spacing.
func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(limitFor(interval), 1)
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// Name implements Source.
func (c *Client) Name() string {
	return "sheets:" + c.cfg.SheetID
}

// Fetch implements Source. When called sooner than the minimum interval after
// the previous request, it waits out the remaining gap first (or until ctx ends).
func (c *Client) Fetch(ctx context.Context) types.Snapshot {
	ctx, span := c.tracer.Start(ctx, "sheets.Fetch", trace.WithAttributes(
		attribute.String("sheet_id", c.cfg.SheetID),
		attribute.String("range", c.cfg.Range),
	))
	defer span.End()

	entries, err := c.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.Failed(c.clock.Now(), Classify(err), err)
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return types.Snapshot{
		Entries:   leaderboard.Rank(entries),
		FetchedAt: c.clock.Now(),
	}
}

func (c *Client) fetch(ctx context.Context) ([]types.ScoreEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Wait refuses up front when the deadline falls before the next slot.
		return nil, fmt.Errorf("wait for request slot: %w", context.DeadlineExceeded)
	}

	rows, err := c.getValues(ctx)
	if err != nil {
		return nil, err
	}
	return c.schema.Parse(rows)
}

// valuesURL builds {base}/{sheet_id}/values/{range}, escaping the range as a
// single path segment.
func (c *Client) valuesURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + "/" + url.PathEscape(c.cfg.SheetID) + "/values/" + url.PathEscape(c.cfg.Range)
}

func (c *Client) getValues(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.valuesURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	var body valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: decode values: %v", ErrMalformed, err)
	}
	return toStrings(body.Values), nil
}

func toStrings(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = cellText(v)
		}
	}
	return rows
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// keyRoundTripper adds the API key as the "key" query parameter.
// The key is resolved per request so a rotated environment value is picked up.
type keyRoundTripper struct {
	base http.RoundTripper
	key  func() string
}

func (t *keyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if k := t.key(); k != "" {
		req = req.Clone(req.Context())
		q := req.URL.Query()
		q.Set("key", k)
		req.URL.RawQuery = q.Encode()
	}
	return t.base.RoundTrip(req)
}
