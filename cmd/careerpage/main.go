// Command careerpage serves the career-page API: company catalogs, nearest
// stores, the step flow and the AI interview hand-off.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/career-locator/internal/cache/redisstore"
	"github.com/mohammed-shakir/career-locator/internal/core/config"
	"github.com/mohammed-shakir/career-locator/internal/core/health"
	"github.com/mohammed-shakir/career-locator/internal/core/httpclient"
	"github.com/mohammed-shakir/career-locator/internal/core/middleware"
	"github.com/mohammed-shakir/career-locator/internal/core/observability"
	"github.com/mohammed-shakir/career-locator/internal/core/router"
	"github.com/mohammed-shakir/career-locator/internal/core/server"
	"github.com/mohammed-shakir/career-locator/internal/handoff"
	"github.com/mohammed-shakir/career-locator/internal/locate"
	"github.com/mohammed-shakir/career-locator/internal/locate/iplocate"
	"github.com/mohammed-shakir/career-locator/internal/logger"
	h3mapper "github.com/mohammed-shakir/career-locator/internal/mapper/h3"
	"github.com/mohammed-shakir/career-locator/internal/metrics"
	"github.com/mohammed-shakir/career-locator/internal/storesource"
	"github.com/mohammed-shakir/career-locator/pkg/invalidation/kafka"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "careerpage",
		Component: "main",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)
	slog.SetDefault(appLog)

	appLog.Info("starting careerpage",
		"addr", cfg.Addr,
		"version", Version,
		"career_api", cfg.CareerAPIURL,
		"default_suburl", cfg.DefaultSub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var prov *metrics.Provider
	if cfg.MetricsOn {
		prov = metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.MetricsAddr,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
	} else {
		observability.Init(nil, false)
	}
	observability.ExposeBuildInfo(Version)

	outbound := httpclient.NewOutbound(cfg.APITimeout)

	var (
		l2     storesource.SharedCache
		checks []health.Dependency
	)
	if cfg.RedisEnabled {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis unavailable, continuing with in-process cache only", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer func() { _ = rc.Close() }()
			l2 = rc
			checks = append(checks, health.Dependency{Name: "redis", Ping: rc.Ping})
		}
	}

	api, err := storesource.NewClient(appLog, outbound, cfg.CareerAPIURL)
	if err != nil {
		appLog.Error("career api client", "err", err)
		return 1
	}
	src := storesource.New(appLog, api, l2, storesource.Options{
		TTL:           cfg.CacheTTL,
		L1Size:        cfg.LRUSize,
		OpTimeout:     cfg.CacheOpTO,
		DefaultSuburl: cfg.DefaultSub,
	})

	ipl, err := iplocate.New(appLog, outbound, cfg.IPLocateURL, cfg.IPAccuracyM)
	if err != nil {
		appLog.Error("ip locator", "err", err)
		return 1
	}
	resolver := locate.NewResolver(ipl.Capability(),
		locate.WithRegion(cfg.Region),
		locate.WithLogger(appLog))

	mapper, err := h3mapper.New(cfg.H3Res)
	if err != nil {
		appLog.Error("h3 mapper", "err", err)
		return 1
	}

	var pub handoff.Publisher
	if cfg.Handoff.Enabled {
		kp, err := handoff.NewKafkaPublisher(handoff.SplitBrokers(cfg.Handoff.Brokers), cfg.Handoff.Topic, 0, appLog)
		if err != nil {
			appLog.Error("handoff publisher unavailable, hand-offs will not be published", "err", err)
		} else {
			pub = kp
		}
	}
	var fwd handoff.Forwarder
	if cfg.Handoff.Forward {
		fwd = api
	}
	ho := handoff.NewService(appLog, pub, fwd, handoff.Options{
		ChatHost:       cfg.Handoff.ChatHost,
		ForwardTimeout: cfg.APITimeout,
	})
	defer func() {
		if err := ho.Close(); err != nil {
			appLog.Error("handoff close", "err", err)
		}
	}()

	runnerOpts := kafka.Options{Logger: appLog}
	if prov != nil {
		runnerOpts.Register = prov.Registerer()
	}
	runner := kafka.New(kafka.FromConfig(cfg.Invalidation), src, runnerOpts)
	ready := health.Always
	if runner.Enabled() {
		ready = runner
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.Proxies)
	if err != nil {
		appLog.Error("trusted proxies", "err", err)
		return 1
	}

	deps := router.Deps{
		Logger:   appLog,
		Config:   cfg,
		Catalog:  src,
		Resolver: resolver,
		Mapper:   mapper,
		Handoff:  ho,
		Limiter:  middleware.NewIPRateLimiter(cfg.RateRPS, cfg.RateBurst, proxies, appLog),
		Proxies:  proxies,
		Ready:    ready,
		Checks:   checks,
	}
	if prov != nil {
		deps.Metrics = prov.Handler()
	}

	if err := runner.Start(ctx); err != nil {
		appLog.Error("invalidation runner", "err", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, server.New(cfg.Addr, router.New(deps)), appLog)
	})
	if prov != nil {
		g.Go(func() error {
			return server.Run(gctx, prov.Server(cfg.MetricsAddr), appLog)
		})
	}
	if runner.Enabled() {
		g.Go(func() error {
			<-gctx.Done()
			runner.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("careerpage exited", "err", err)
		return 1
	}
	appLog.Info("careerpage stopped")
	return 0
}
