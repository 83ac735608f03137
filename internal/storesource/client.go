package storesource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammed-shakir/career-locator/internal/core/observability"
)

// Application is the body of POST /applications.
type Application struct {
	CompanyID     string    `json:"company_id"`
	StoreID       string    `json:"store_id,omitempty"`
	PositionID    string    `json:"position_id,omitempty"`
	ApplicantData any       `json:"applicant_data"`
	Source        string    `json:"source"`
	Language      string    `json:"language,omitempty"`
	AppliedAt     time.Time `json:"applied_at"`
}

// Client talks to the career API.
type Client struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  *url.URL
	startNow func() time.Time // for tests
}

func NewClient(logger *slog.Logger, client *http.Client, base string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse career api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse career api url: %q is not absolute", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger, client: client, baseURL: u, startNow: time.Now}, nil
}

// FetchCompany returns company info, branches and jobs in one call.
func (c *Client) FetchCompany(ctx context.Context, suburl string) (RawCompany, error) {
	u := c.baseURL.JoinPath("company", "by-suburl", suburl)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RawCompany{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "company")
	if err != nil {
		return RawCompany{}, fmt.Errorf("fetch company %q: %w", suburl, err)
	}

	var raw RawCompany
	if err := json.Unmarshal(body, &raw); err != nil {
		return RawCompany{}, fmt.Errorf("decode company %q: %w: %w", suburl, ErrUpstream, err)
	}
	return raw, nil
}

// SubmitApplication records an application hand-off with the career API.
func (c *Client) SubmitApplication(ctx context.Context, app Application) error {
	if app.AppliedAt.IsZero() {
		app.AppliedAt = c.startNow().UTC()
	}
	b, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}
	u := c.baseURL.JoinPath("applications")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if _, err := c.do(req, "applications"); err != nil {
		return fmt.Errorf("submit application: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request, upstream string) ([]byte, error) {
	start := c.startNow()
	resp, err := c.client.Do(req)
	if err != nil {
		observability.ObserveUpstreamLatency(upstream, 0, time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: do request: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	observability.ObserveUpstreamLatency(upstream, resp.StatusCode, dur.Seconds())
	c.logger.DebugContext(req.Context(), "career api call",
		"upstream", upstream,
		"status", resp.StatusCode,
		"duration", dur.String())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	return b, nil
}
