package storesource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/career-locator/internal/cache/keys"
	"github.com/mohammed-shakir/career-locator/internal/cache/redisstore"
	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

type fakeFetcher struct {
	calls atomic.Int32
	raw   RawCompany
	err   error
	delay time.Duration
}

func (f *fakeFetcher) FetchCompany(ctx context.Context, _ string) (RawCompany, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return RawCompany{}, ctx.Err()
		}
	}
	return f.raw, f.err
}

func newRedis(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rc, err := redisstore.New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestLoad_APIThenL1(t *testing.T) {
	f := &fakeFetcher{raw: decodeSample(t)}
	s := New(quietLogger(), f, nil, Options{})

	cat, err := s.Load(context.Background(), "GS25")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Source != model.SourceAPI || len(cat.Stores) != 5 || cat.Company.CompanyID != "316" {
		t.Fatalf("first load got source=%s stores=%d", cat.Source, len(cat.Stores))
	}

	again, err := s.Load(context.Background(), "gs25")
	if err != nil || again.Source != model.SourceCache {
		t.Fatalf("second load source=%s err=%v want cache", again.Source, err)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("upstream calls=%d want 1", n)
	}
}

func TestLoad_L2ServesAcrossInstances(t *testing.T) {
	rc, mr := newRedis(t)
	f := &fakeFetcher{raw: decodeSample(t)}

	first := New(quietLogger(), f, rc, Options{TTL: time.Minute})
	if _, err := first.Load(context.Background(), "gs25"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !mr.Exists(keys.CompanyKey("gs25")) {
		t.Fatal("catalog was not written to redis")
	}

	second := New(quietLogger(), f, rc, Options{TTL: time.Minute})
	cat, err := second.Load(context.Background(), "gs25")
	if err != nil || cat.Source != model.SourceCache {
		t.Fatalf("second instance source=%s err=%v want cache", cat.Source, err)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("upstream calls=%d want 1", n)
	}
	valid := 0
	for _, st := range cat.Stores {
		if st.HasValidCoordinates() {
			valid++
		}
	}
	if valid != 2 {
		t.Fatalf("coordinates lost through redis: valid=%d want 2", valid)
	}
}

func TestLoad_CorruptL2EntryIsIgnored(t *testing.T) {
	rc, mr := newRedis(t)
	_ = mr.Set(keys.CompanyKey("gs25"), "{broken")
	f := &fakeFetcher{raw: decodeSample(t)}

	cat, err := New(quietLogger(), f, rc, Options{}).Load(context.Background(), "gs25")
	if err != nil || cat.Source != model.SourceAPI {
		t.Fatalf("source=%s err=%v want api", cat.Source, err)
	}
}

func TestLoad_EmptySuburlUsesDefault(t *testing.T) {
	f := &fakeFetcher{raw: RawCompany{}}
	s := New(quietLogger(), f, nil, Options{DefaultSuburl: "gs25"})
	if _, err := s.Load(context.Background(), "  "); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Load(context.Background(), "gs25"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("upstream calls=%d want 1 (empty suburl shares default key)", n)
	}
}

func TestLoad_ConcurrentMissesShareOneCall(t *testing.T) {
	f := &fakeFetcher{raw: decodeSample(t), delay: 50 * time.Millisecond}
	s := New(quietLogger(), f, nil, Options{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Load(context.Background(), "gs25"); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("upstream calls=%d want 1", n)
	}
}

func TestLoadOrFallback_OnUpstreamError(t *testing.T) {
	f := &fakeFetcher{err: ErrUpstream}
	s := New(quietLogger(), f, nil, Options{})

	cat, err := s.LoadOrFallback(context.Background(), "nomin")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err=%v want ErrUpstream", err)
	}
	if cat.Source != model.SourceFallback || cat.Company.CompanyID != "nomin" || cat.Company.BrandName != "NOMIN" {
		t.Fatalf("fallback got %+v", cat.Company)
	}
	if len(cat.Stores) != 1 || !cat.Stores[0].HasValidCoordinates() {
		t.Fatalf("fallback stores got %+v", cat.Stores)
	}

	// fallback results are not cached
	f.err = nil
	f.raw = decodeSample(t)
	cat, err = s.LoadOrFallback(context.Background(), "nomin")
	if err != nil || cat.Source != model.SourceAPI {
		t.Fatalf("recovered source=%s err=%v want api", cat.Source, err)
	}
}

func TestLoad_NoFetcher(t *testing.T) {
	_, err := New(quietLogger(), nil, nil, Options{}).Load(context.Background(), "x")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err=%v want ErrUpstream", err)
	}
}

func TestInvalidate_EvictsBothTiers(t *testing.T) {
	rc, mr := newRedis(t)
	f := &fakeFetcher{raw: decodeSample(t)}
	s := New(quietLogger(), f, rc, Options{})

	if _, err := s.Load(context.Background(), "gs25"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Invalidate(context.Background(), "GS25"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists(keys.CompanyKey("gs25")) {
		t.Fatal("redis entry survived invalidation")
	}
	cat, err := s.Load(context.Background(), "gs25")
	if err != nil || cat.Source != model.SourceAPI {
		t.Fatalf("after invalidate source=%s err=%v want api", cat.Source, err)
	}
	if n := f.calls.Load(); n != 2 {
		t.Fatalf("upstream calls=%d want 2", n)
	}
}
