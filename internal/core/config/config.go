package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/geo"
)

type InvalidationCfg struct {
	Enabled bool
	Driver  string
	Topic   string
	Brokers string
	GroupID string
}

type HandoffCfg struct {
	Enabled  bool
	ChatHost string
	Brokers  string
	Topic    string
	// forward session data to the career API applications endpoint
	Forward bool
}

type Config struct {
	Addr         string
	LogLevel     string
	LogConsole   bool
	LogSampleN   int
	MetricsAddr  string
	MetricsOn    bool
	CareerAPIURL string
	APITimeout   time.Duration
	DefaultSub   string
	RedisEnabled bool
	RedisAddr    string
	CacheTTL     time.Duration
	CacheOpTO    time.Duration
	LRUSize      int
	Fallback     model.Coordinate
	Region       geo.Region
	IPLocateURL  string
	IPAccuracyM  float64
	H3Res        int
	RateRPS      float64
	RateBurst    int
	// comma-separated CIDRs trusted to set X-Forwarded-For
	Proxies      string
	Handoff      HandoffCfg
	Invalidation InvalidationCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 8)
	if res < 0 || res > 15 {
		res = 8
	}

	region := geo.Mongolia
	if raw := getenv("REGION_BBOX", ""); raw != "" {
		if r, err := geo.ParseRegion(raw); err == nil {
			region = r
		}
	}

	fallback := model.Coordinate{
		Lat: getfloat("FALLBACK_LAT", 47.9187),
		Lng: getfloat("FALLBACK_LNG", 106.9177),
	}
	if !fallback.Valid() {
		fallback = model.Coordinate{Lat: 47.9187, Lng: 106.9177}
	}

	return Config{
		Addr:         getenv("ADDR", ":8090"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogConsole:   getbool("LOG_CONSOLE", false),
		LogSampleN:   getint("LOG_SAMPLE_N", 0),
		MetricsAddr:  getenv("METRICS_ADDR", ":9090"),
		MetricsOn:    getbool("METRICS_ENABLED", false),
		CareerAPIURL: getenv("CAREER_API_URL", "https://oneplace-hr-326159028339.asia-southeast1.run.app/v1"),
		APITimeout:   getduration("CAREER_API_TIMEOUT", 10*time.Second),
		DefaultSub:   getenv("DEFAULT_SUBURL", "1place"),
		RedisEnabled: getbool("REDIS_ENABLED", false),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:     getduration("CACHE_TTL", 5*time.Minute),
		CacheOpTO:    getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		LRUSize:      getint("LRU_SIZE", 256),
		Fallback:     fallback,
		Region:       region,
		IPLocateURL:  getenv("IPLOCATE_URL", ""),
		IPAccuracyM:  getfloat("IPLOCATE_ACCURACY_M", 5000),
		H3Res:        res,
		RateRPS:      getfloat("RATE_LIMIT_RPS", 1),
		RateBurst:    getint("RATE_LIMIT_BURST", 5),
		Proxies:      getenv("TRUSTED_PROXIES", ""),
		Handoff: HandoffCfg{
			Enabled:  getbool("HANDOFF_ENABLED", false),
			ChatHost: getenv("CHAT_HOST", "chat.oneplace.hr"),
			Brokers:  getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:    getenv("HANDOFF_TOPIC", "career-handoff"),
			Forward:  getbool("HANDOFF_FORWARD", true),
		},
		Invalidation: InvalidationCfg{
			Enabled: strings.ToLower(getenv("INVALIDATION_ENABLED", "false")) == "true",
			Driver:  getenv("INVALIDATION_DRIVER", "none"),
			Topic:   getenv("KAFKA_TOPIC", "company-updates"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "career-cache-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
