// Package iplocate is a server-side location capability backed by an
// ip-api style lookup of the visitor's address.
package iplocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/core/observability"
	"github.com/mohammed-shakir/career-locator/internal/locate"
)

type ctxKey struct{}

// WithClientIP attaches the visitor address the lookup should use.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(ip))
}

func clientIP(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// maxCacheAge bounds how long a lookup is kept, whatever MaximumAge asks for.
const maxCacheAge = 10 * time.Minute

type cached struct {
	fix locate.Fix
	at  time.Time
}

type Locator struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  *url.URL
	accuracy float64
	cache    *expirable.LRU[string, cached]
	now      func() time.Time
}

// New returns nil when base is empty: the host then has no location capability.
func New(logger *slog.Logger, client *http.Client, base string, accuracyMeters float64) (*Locator, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, nil
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse iplocate url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse iplocate url: %q is not absolute", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if accuracyMeters <= 0 {
		accuracyMeters = 5000
	}
	return &Locator{
		logger:   logger,
		client:   client,
		baseURL:  u,
		accuracy: accuracyMeters,
		cache:    expirable.NewLRU[string, cached](1024, nil, maxCacheAge),
		now:      time.Now,
	}, nil
}

// Capability adapts l to locate.Locator, keeping a nil *Locator as a nil interface.
func (l *Locator) Capability() locate.Locator {
	if l == nil {
		return nil
	}
	return l
}

type lookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentPosition looks up the client address from ctx. HighAccuracy has no
// effect on an address lookup.
func (l *Locator) CurrentPosition(ctx context.Context, opts locate.Options) (locate.Fix, error) {
	ip := clientIP(ctx)
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return locate.Fix{}, &locate.PositionError{Code: locate.CodePositionUnavailable, Message: "no client address"}
	}
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return locate.Fix{}, &locate.PositionError{Code: locate.CodePositionUnavailable, Message: "non-public client address"}
	}
	key := addr.String()

	if c, ok := l.cache.Get(key); ok && opts.MaximumAge > 0 && l.now().Sub(c.at) <= opts.MaximumAge {
		return c.fix, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	fix, err := l.lookup(ctx, key)
	if err != nil {
		return locate.Fix{}, err
	}
	l.cache.Add(key, cached{fix: fix, at: l.now()})
	return fix, nil
}

func (l *Locator) lookup(ctx context.Context, ip string) (locate.Fix, error) {
	u := l.baseURL.JoinPath(ip)
	q := u.Query()
	q.Set("fields", "status,message,lat,lon")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return locate.Fix{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := l.now()
	resp, err := l.client.Do(req)
	if err != nil {
		observability.ObserveUpstreamLatency("iplocate", 0, time.Since(start).Seconds())
		if isTimeout(ctx, err) {
			return locate.Fix{}, &locate.PositionError{Code: locate.CodeTimeout, Message: err.Error()}
		}
		return locate.Fix{}, fmt.Errorf("iplocate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveUpstreamLatency("iplocate", resp.StatusCode, time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return locate.Fix{}, &locate.PositionError{Code: locate.CodePermissionDenied, Message: "lookup refused"}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return locate.Fix{}, &locate.PositionError{
			Code:    locate.CodePositionUnavailable,
			Message: fmt.Sprintf("lookup status %d", resp.StatusCode),
		}
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		if isTimeout(ctx, err) {
			return locate.Fix{}, &locate.PositionError{Code: locate.CodeTimeout, Message: err.Error()}
		}
		return locate.Fix{}, fmt.Errorf("decode lookup: %w", err)
	}
	if !strings.EqualFold(body.Status, "success") {
		return locate.Fix{}, &locate.PositionError{Code: locate.CodePositionUnavailable, Message: body.Message}
	}
	c := model.Coordinate{Lat: body.Lat, Lng: body.Lon}
	if !c.Valid() {
		return locate.Fix{}, &locate.PositionError{Code: locate.CodePositionUnavailable, Message: "invalid coordinate"}
	}
	l.logger.DebugContext(ctx, "ip lookup resolved", "coord", c.String())
	return locate.Fix{Coordinate: c, AccuracyMeters: l.accuracy}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
