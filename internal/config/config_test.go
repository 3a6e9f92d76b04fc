package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "https://ismp.crpt.ru/api/v3/lk/documents/create", cfg.RegistryURL)
	require.Equal(t, 10, cfg.Quota.Limit)
	require.Equal(t, time.Second, cfg.Quota.Interval)
	require.Equal(t, StrategyWindow, cfg.Quota.Strategy)
	require.Zero(t, cfg.Retry.MaxAttempts)
	require.Equal(t, BackendMemory, cfg.Stats.Backend)
	require.Equal(t, time.Hour, cfg.Stats.StatusTTL)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "none", cfg.Tracing.Exporter)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.Equal(t, "honestsign-registrar", cfg.Tracing.ServiceName)
	require.False(t, cfg.UsesRedis())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("QUOTA_LIMIT", "3")
	t.Setenv("QUOTA_INTERVAL", "250ms")
	t.Setenv("QUOTA_STRATEGY", "REDIS")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_EXPORTER", "otlp")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Quota.Limit)
	require.Equal(t, 250*time.Millisecond, cfg.Quota.Interval)
	require.Equal(t, StrategyRedis, cfg.Quota.Strategy)
	require.Equal(t, 2, cfg.Redis.DB)
	require.True(t, cfg.UsesRedis())
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "otlp", cfg.Tracing.Exporter)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("QUOTA_LIMIT", "3")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("limit", 0, "")
	fs.Duration("interval", 0, "")
	require.NoError(t, fs.Parse([]string{"--limit", "7", "--interval", "2s"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Quota.Limit)
	require.Equal(t, 2*time.Second, cfg.Quota.Interval)
}

func TestLoad_UnsetFlagsKeepEnvironment(t *testing.T) {
	t.Setenv("QUOTA_LIMIT", "4")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("limit", 99, "")
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Quota.Limit)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("QUOTA_LIMIT", "abc")
	t.Setenv("QUOTA_INTERVAL", "0s")

	_, err := Load(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid QUOTA_LIMIT")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	cfg.Quota.Limit = 0
	cfg.Quota.Interval = 0
	cfg.Quota.Strategy = "leaky"
	cfg.Stats.Backend = "redis"
	cfg.Redis.Addr = ""
	cfg.RegistryURL = "ftp://x"
	cfg.LogLevel = "loud"
	cfg.Tracing.SampleRate = 2

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"QUOTA_LIMIT", "QUOTA_INTERVAL", "QUOTA_STRATEGY", "REDIS_ADDR",
		"REGISTRY_URL", "LOG_LEVEL", "TRACING_SAMPLE_RATE",
	} {
		require.Contains(t, err.Error(), want)
	}
}

func TestLoad_ZeroSampleRateIsKept(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLE_RATE", "0")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Zero(t, cfg.Tracing.SampleRate)
}
