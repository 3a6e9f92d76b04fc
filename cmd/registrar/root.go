package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Breadlyy/honestSign/dispatch"
	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/dispatch/infra"
	"github.com/Breadlyy/honestSign/internal/config"
	"github.com/Breadlyy/honestSign/internal/log"
	"github.com/Breadlyy/honestSign/internal/tracing"
)

var rootCmd = &cobra.Command{
	Use:          "registrar",
	Short:        "Submit signed documents to the registry under a fixed-window quota",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("registry-url", "", "registry endpoint (REGISTRY_URL)")
	pf.Int("limit", 0, "submissions per interval (QUOTA_LIMIT)")
	pf.Duration("interval", 0, "quota window length (QUOTA_INTERVAL)")
	pf.String("strategy", "", "quota strategy: window|token|redis (QUOTA_STRATEGY)")
	pf.Int("max-attempts", 0, "admission attempts before giving up, 0 = never (RETRY_MAX_ATTEMPTS)")
	pf.String("stats-backend", "", "stats backend: memory|redis (STATS_BACKEND)")
	pf.String("redis-addr", "", "redis address (REDIS_ADDR)")
	pf.String("log-level", "", "debug|info|warn|error (LOG_LEVEL)")
	pf.Bool("tracing", false, "enable OpenTelemetry tracing (TRACING_ENABLED)")
	pf.String("trace-exporter", "", "none|stdout|otlp (TRACING_EXPORTER)")

	rootCmd.AddCommand(serveCmd, demoCmd)
}

// app agrupa o que serve e demo compartilham.
type app struct {
	cfg        config.Config
	dispatcher *dispatch.Dispatcher
	tracer     *tracing.Provider
	closers    []func()
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.Init(os.Stderr, level)

	a := &app{cfg: cfg}

	a.tracer, err = tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatDispatch, "tracing shutdown failed", err)
		}
	})

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = newRedis(cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	a.dispatcher, err = dispatch.New(dispatch.Options{
		Endpoint:        cfg.RegistryURL,
		Limit:           cfg.Quota.Limit,
		Interval:        cfg.Quota.Interval,
		Quota:           newQuota(cfg, rdb),
		Transport:       infra.NewHTTPTransport(infra.WithTimeout(cfg.Send.HTTPTimeout)),
		Stats:           newStats(cfg, rdb),
		Status:          infra.NewStatusCache(cfg.Stats.StatusTTL, 0),
		MaxAttempts:     cfg.Retry.MaxAttempts,
		MaxInFlight:     cfg.Send.MaxInFlight,
		SendSlotTimeout: cfg.Send.SlotTimeout,
		Tracer:          a.tracer.Tracer(),
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}
	return a, nil
}

// close desfaz o setup na ordem inversa.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

func newQuota(cfg config.Config, rdb *redis.Client) domain.Quota {
	switch cfg.Quota.Strategy {
	case config.StrategyToken:
		log.Warn(log.CatQuota, "token strategy smooths the rate and may admit up to 2x limit within one window",
			"limit", cfg.Quota.Limit, "interval", cfg.Quota.Interval)
		return infra.NewTokenBucketQuota(cfg.Quota.Limit, cfg.Quota.Interval)
	case config.StrategyRedis:
		return infra.NewRedisQuota(rdb, cfg.Quota.Limit, cfg.Quota.Interval,
			infra.WithQuotaPrefix(cfg.Redis.Prefix+":quota"))
	default:
		return infra.NewWindowQuota(cfg.Quota.Limit)
	}
}

func newStats(cfg config.Config, rdb *redis.Client) domain.StatsStore {
	if cfg.Stats.Backend == config.BackendRedis {
		return infra.NewRedisStatsStore(rdb, infra.WithStatsPrefix(cfg.Redis.Prefix+":stats"))
	}
	return infra.NewMemoryStatsStore()
}
