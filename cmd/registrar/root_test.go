package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Breadlyy/honestSign/dispatch/infra"
	"github.com/Breadlyy/honestSign/internal/config"
	"github.com/Breadlyy/honestSign/internal/log"
)

func TestNewQuota_SelectsStrategy(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{Quota: config.QuotaConfig{Limit: 3, Interval: time.Second}, Redis: config.RedisConfig{Prefix: "t"}}

	cfg.Quota.Strategy = config.StrategyWindow
	require.IsType(t, &infra.WindowQuota{}, newQuota(cfg, nil))

	var logs bytes.Buffer
	log.Init(&logs, log.LevelWarn)
	t.Cleanup(log.Disable)

	require.NotContains(t, logs.String(), "token strategy")
	cfg.Quota.Strategy = config.StrategyToken
	require.IsType(t, &infra.TokenBucketQuota{}, newQuota(cfg, nil))
	require.Contains(t, logs.String(), "[WARN] [quota] token strategy")
	require.Contains(t, logs.String(), "limit=3")

	cfg.Quota.Strategy = config.StrategyRedis
	q := newQuota(cfg, rdb)
	require.IsType(t, &infra.RedisQuota{}, q)
	ok, err := q.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mr.Exists("t:quota:count"))
}

func TestNewStats_SelectsBackend(t *testing.T) {
	cfg := config.Config{Stats: config.StatsConfig{Backend: config.BackendMemory}}
	require.IsType(t, &infra.MemoryStatsStore{}, newStats(cfg, nil))

	cfg.Stats.Backend = config.BackendRedis
	require.IsType(t, &infra.RedisStatsStore{}, newStats(cfg, redis.NewClient(&redis.Options{})))
}

func TestNewRedis_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := newRedis(config.RedisConfig{Addr: addr})
	require.Error(t, err)
}

func TestDemo_DeliversEverySubmission(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"demo", "--count", "3", "--wait", "5s", "--poll", "10ms",
		"--registry-url", srv.URL, "--limit", "1", "--interval", "50ms", "--log-level", "error",
	})
	require.NoError(t, rootCmd.Execute())

	require.Contains(t, out.String(), "settled=true delivered=3 failed=0 abandoned=0 dropped=0")
	require.Equal(t, 3, strings.Count(out.String(), "\tdelivered\t"))
	require.EqualValues(t, 3, calls.Load())
}
