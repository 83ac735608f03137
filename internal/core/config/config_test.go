package config

import (
	"testing"
	"time"

	"github.com/mohammed-shakir/career-locator/internal/geo"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != ":8090" || cfg.DefaultSub != "1place" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("CacheTTL=%v want 5m", cfg.CacheTTL)
	}
	if cfg.Region != geo.Mongolia {
		t.Fatalf("Region=%v want Mongolia", cfg.Region)
	}
	if cfg.Fallback.Lat != 47.9187 || cfg.Fallback.Lng != 106.9177 {
		t.Fatalf("Fallback=%v", cfg.Fallback)
	}
	if cfg.Handoff.ChatHost != "chat.oneplace.hr" {
		t.Fatalf("ChatHost=%q", cfg.Handoff.ChatHost)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("REGION_BBOX", "46.4,40.5,87.4,55.5")
	t.Setenv("FALLBACK_LAT", "43.238")
	t.Setenv("FALLBACK_LNG", "76.945")
	t.Setenv("H3_RES", "99")
	t.Setenv("REDIS_ENABLED", "yes")
	t.Setenv("CACHE_TTL", "30s")

	cfg := FromEnv()
	if cfg.Region.MinLng != 46.4 || cfg.Region.MaxLat != 55.5 {
		t.Fatalf("Region=%v", cfg.Region)
	}
	if cfg.Fallback.Lat != 43.238 || cfg.Fallback.Lng != 76.945 {
		t.Fatalf("Fallback=%v", cfg.Fallback)
	}
	if cfg.H3Res != 8 {
		t.Fatalf("H3Res=%d want clamp to default 8", cfg.H3Res)
	}
	if !cfg.RedisEnabled || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("redis=%v ttl=%v", cfg.RedisEnabled, cfg.CacheTTL)
	}
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("REGION_BBOX", "nonsense")
	t.Setenv("FALLBACK_LAT", "200")
	t.Setenv("LRU_SIZE", "many")

	cfg := FromEnv()
	if cfg.Region != geo.Mongolia {
		t.Fatalf("Region=%v want default", cfg.Region)
	}
	if cfg.Fallback.Lat != 47.9187 {
		t.Fatalf("Fallback=%v want default", cfg.Fallback)
	}
	if cfg.LRUSize != 256 {
		t.Fatalf("LRUSize=%d want 256", cfg.LRUSize)
	}
}

func TestFromEnv_RateLimit(t *testing.T) {
	cfg := FromEnv()
	if cfg.RateRPS != 1 || cfg.RateBurst != 5 {
		t.Fatalf("rate=%v burst=%d want 1,5", cfg.RateRPS, cfg.RateBurst)
	}
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "2")
	cfg = FromEnv()
	if cfg.RateRPS != 0.5 || cfg.RateBurst != 2 {
		t.Fatalf("rate=%v burst=%d want 0.5,2", cfg.RateRPS, cfg.RateBurst)
	}
}

func TestFromEnv_TrustedProxies(t *testing.T) {
	if cfg := FromEnv(); cfg.Proxies != "" {
		t.Fatalf("Proxies=%q want none trusted by default", cfg.Proxies)
	}
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	if cfg := FromEnv(); cfg.Proxies != "10.0.0.0/8" {
		t.Fatalf("Proxies=%q", cfg.Proxies)
	}
}
