// Package storesource loads a company's career catalog (company config, branches
// and jobs) from the career API, with an in-process L1 and an optional Redis L2.
package storesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/mohammed-shakir/career-locator/internal/cache/keys"
	"github.com/mohammed-shakir/career-locator/internal/cache/redisstore"
	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/core/observability"
)

var (
	ErrNotFound = errors.New("company not found")
	ErrUpstream = errors.New("career api unavailable")
)

// Fetcher is the career API read side.
type Fetcher interface {
	FetchCompany(ctx context.Context, suburl string) (RawCompany, error)
}

// SharedCache is the L2 tier; *redisstore.Client satisfies it.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	TTL       time.Duration
	L1Size    int
	OpTimeout time.Duration
	// used when the caller passes an empty suburl
	DefaultSuburl string
}

type Source struct {
	fetch  Fetcher
	l2     SharedCache
	l1     *expirable.LRU[string, model.Catalog]
	group  singleflight.Group
	opts   Options
	logger *slog.Logger
}

// New wires the source. l2 may be nil to run with the in-process tier only.
func New(logger *slog.Logger, fetch Fetcher, l2 SharedCache, opts Options) *Source {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.L1Size <= 0 {
		opts.L1Size = 256
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 250 * time.Millisecond
	}
	if opts.DefaultSuburl == "" {
		opts.DefaultSuburl = DefaultSuburl
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		fetch:  fetch,
		l2:     l2,
		l1:     expirable.NewLRU[string, model.Catalog](opts.L1Size, nil, opts.TTL),
		opts:   opts,
		logger: logger,
	}
}

// Load returns the catalog for suburl, consulting L1, then L2, then the API.
// Concurrent misses for the same suburl share one upstream call.
func (s *Source) Load(ctx context.Context, suburl string) (model.Catalog, error) {
	sub := keys.NormalizeSuburl(suburl)
	if sub == "" {
		sub = s.opts.DefaultSuburl
	}
	key := keys.CompanyKey(sub)

	if cat, ok := s.l1.Get(key); ok {
		observability.IncCacheHit("l1")
		observability.IncCatalogLoad(string(model.SourceCache))
		cat.Source = model.SourceCache
		return cat, nil
	}
	observability.IncCacheMiss("l1")

	if cat, ok := s.readL2(ctx, key); ok {
		s.l1.Add(key, cat)
		observability.IncCatalogLoad(string(model.SourceCache))
		cat.Source = model.SourceCache
		return cat, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if cat, ok := s.l1.Get(key); ok {
			cat.Source = model.SourceCache
			return cat, nil
		}
		return s.loadUpstream(ctx, sub, key)
	})
	if err != nil {
		return model.Catalog{}, err
	}
	return v.(model.Catalog), nil
}

// LoadOrFallback never fails: upstream errors are logged and the static
// fallback catalog is returned with the error that caused it.
func (s *Source) LoadOrFallback(ctx context.Context, suburl string) (model.Catalog, error) {
	cat, err := s.Load(ctx, suburl)
	if err == nil {
		return cat, nil
	}
	sub := keys.NormalizeSuburl(suburl)
	if sub == "" {
		sub = s.opts.DefaultSuburl
	}
	s.logger.WarnContext(ctx, "career api failed, serving fallback catalog",
		"suburl", sub, "err", err)
	observability.IncCatalogLoad(string(model.SourceFallback))
	return Fallback(sub), err
}

// Invalidate evicts a company from both tiers.
func (s *Source) Invalidate(ctx context.Context, suburl string) error {
	key := keys.CompanyKey(suburl)
	s.l1.Remove(key)
	if s.l2 == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	if err := s.l2.Del(cctx, key); err != nil {
		return fmt.Errorf("invalidate %q: %w", suburl, err)
	}
	return nil
}

func (s *Source) loadUpstream(ctx context.Context, sub, key string) (model.Catalog, error) {
	if s.fetch == nil {
		return model.Catalog{}, fmt.Errorf("load %q: %w: no career api configured", sub, ErrUpstream)
	}
	raw, err := s.fetch.FetchCompany(ctx, sub)
	if err != nil {
		return model.Catalog{}, err
	}

	cat := model.Catalog{
		Company: TransformCompany(raw),
		Stores:  TransformStores(raw.Branches),
		Source:  model.SourceAPI,
	}
	withCoords := 0
	for _, st := range cat.Stores {
		if st.HasValidCoordinates() {
			withCoords++
		}
	}
	s.logger.InfoContext(ctx, "catalog loaded",
		"suburl", sub,
		"stores", len(cat.Stores),
		"with_coordinates", withCoords)

	s.l1.Add(key, cat)
	s.writeL2(ctx, key, cat)
	observability.IncCatalogLoad(string(model.SourceAPI))
	return cat, nil
}

func (s *Source) readL2(ctx context.Context, key string) (model.Catalog, bool) {
	if s.l2 == nil {
		return model.Catalog{}, false
	}
	cctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()

	b, err := s.l2.Get(cctx, key)
	if err != nil {
		if !errors.Is(err, redisstore.ErrMiss) {
			s.logger.WarnContext(ctx, "l2 read failed", "key", key, "err", err)
		}
		observability.IncCacheMiss("l2")
		return model.Catalog{}, false
	}
	var cat model.Catalog
	if err := json.Unmarshal(b, &cat); err != nil {
		s.logger.WarnContext(ctx, "l2 entry undecodable, ignoring", "key", key, "err", err)
		observability.IncCacheMiss("l2")
		return model.Catalog{}, false
	}
	observability.IncCacheHit("l2")
	return cat, true
}

func (s *Source) writeL2(ctx context.Context, key string, cat model.Catalog) {
	if s.l2 == nil {
		return
	}
	b, err := json.Marshal(cat)
	if err != nil {
		s.logger.WarnContext(ctx, "l2 encode failed", "key", key, "err", err)
		return
	}
	cctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	if err := s.l2.Set(cctx, key, b, s.opts.TTL); err != nil {
		s.logger.WarnContext(ctx, "l2 write failed", "key", key, "err", err)
	}
}
