// Package config centraliza o carregamento de configurações do registrar.
//
// Ordem de precedência: flags da linha de comando, variáveis de ambiente,
// arquivo .env (opcional) e por fim os padrões.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Breadlyy/honestSign/dispatch"
	"github.com/Breadlyy/honestSign/internal/log"
	"github.com/Breadlyy/honestSign/internal/tracing"
)

const (
	StrategyWindow = "window"
	StrategyToken  = "token"
	StrategyRedis  = "redis"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	ListenAddr  string
	RegistryURL string
	Quota       QuotaConfig
	Retry       RetryConfig
	Send        SendConfig
	Stats       StatsConfig
	Redis       RedisConfig
	LogLevel    string
	Tracing     tracing.Config
}

type QuotaConfig struct {
	Limit    int
	Interval time.Duration
	Strategy string
}

type RetryConfig struct {
	MaxAttempts int
}

type SendConfig struct {
	MaxInFlight int
	SlotTimeout time.Duration
	HTTPTimeout time.Duration
}

type StatsConfig struct {
	Backend   string
	StatusTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// UsesRedis indica se algum componente precisa de um client Redis.
func (c Config) UsesRedis() bool {
	return c.Quota.Strategy == StrategyRedis || c.Stats.Backend == BackendRedis
}

var defaults = map[string]string{
	"LISTEN_ADDR":           ":8080",
	"REGISTRY_URL":          dispatch.DefaultEndpoint,
	"QUOTA_LIMIT":           "10",
	"QUOTA_INTERVAL":        "1s",
	"QUOTA_STRATEGY":        StrategyWindow,
	"RETRY_MAX_ATTEMPTS":    "0",
	"SEND_MAX_IN_FLIGHT":    "16",
	"SEND_SLOT_TIMEOUT":     "5s",
	"HTTP_TIMEOUT":          "30s",
	"STATS_BACKEND":         BackendMemory,
	"STATUS_TTL":            "1h",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              "0",
	"REDIS_PREFIX":          "registrar",
	"LOG_LEVEL":             "info",
	"TRACING_ENABLED":       "false",
	"TRACING_EXPORTER":      tracing.DefaultConfig().Exporter,
	"TRACING_OTLP_ENDPOINT": tracing.DefaultConfig().OTLPEndpoint,
	"TRACING_SAMPLE_RATE":   strconv.FormatFloat(tracing.DefaultConfig().SampleRate, 'f', -1, 64),
}

// flagKeys liga o nome da flag à variável que ela sobrescreve.
var flagKeys = map[string]string{
	"listen":         "LISTEN_ADDR",
	"registry-url":   "REGISTRY_URL",
	"limit":          "QUOTA_LIMIT",
	"interval":       "QUOTA_INTERVAL",
	"strategy":       "QUOTA_STRATEGY",
	"max-attempts":   "RETRY_MAX_ATTEMPTS",
	"stats-backend":  "STATS_BACKEND",
	"redis-addr":     "REDIS_ADDR",
	"log-level":      "LOG_LEVEL",
	"tracing":        "TRACING_ENABLED",
	"trace-exporter": "TRACING_EXPORTER",
}

// Load lê .env (se existir), o ambiente e as flags já parseadas em fs
// (pode ser nil) e valida o resultado.
func Load(fs *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
		_ = v.BindEnv(k)
	}
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg, err := build(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	log.Debug(log.CatConfig, "config loaded",
		"limit", cfg.Quota.Limit, "interval", cfg.Quota.Interval, "strategy", cfg.Quota.Strategy,
		"stats", cfg.Stats.Backend, "tracing", cfg.Tracing.Enabled)
	return cfg, nil
}

func build(v *viper.Viper) (Config, error) {
	p := parser{v: v}
	cfg := Config{
		ListenAddr:  p.str("LISTEN_ADDR"),
		RegistryURL: p.str("REGISTRY_URL"),
		Quota: QuotaConfig{
			Limit:    p.int("QUOTA_LIMIT"),
			Interval: p.duration("QUOTA_INTERVAL"),
			Strategy: strings.ToLower(p.str("QUOTA_STRATEGY")),
		},
		Retry: RetryConfig{MaxAttempts: p.int("RETRY_MAX_ATTEMPTS")},
		Send: SendConfig{
			MaxInFlight: p.int("SEND_MAX_IN_FLIGHT"),
			SlotTimeout: p.duration("SEND_SLOT_TIMEOUT"),
			HTTPTimeout: p.duration("HTTP_TIMEOUT"),
		},
		Stats: StatsConfig{
			Backend:   strings.ToLower(p.str("STATS_BACKEND")),
			StatusTTL: p.duration("STATUS_TTL"),
		},
		Redis: RedisConfig{
			Addr:     p.str("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       p.int("REDIS_DB"),
			Prefix:   p.str("REDIS_PREFIX"),
		},
		LogLevel: p.str("LOG_LEVEL"),
		Tracing:  tracing.DefaultConfig(),
	}
	cfg.Tracing.Enabled = p.bool("TRACING_ENABLED")
	cfg.Tracing.Exporter = strings.ToLower(p.str("TRACING_EXPORTER"))
	cfg.Tracing.OTLPEndpoint = p.str("TRACING_OTLP_ENDPOINT")
	cfg.Tracing.SampleRate = p.float("TRACING_SAMPLE_RATE")

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

// parser lê strings do viper e acumula os erros de conversão, para reportar
// todas as variáveis inválidas de uma vez.
type parser struct {
	v    *viper.Viper
	errs []error
}

func (p *parser) str(key string) string { return strings.TrimSpace(p.v.GetString(key)) }

func (p *parser) int(key string) int {
	n, err := strconv.Atoi(p.str(key))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return n
}

func (p *parser) duration(key string) time.Duration {
	d, err := time.ParseDuration(p.str(key))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return d
}

func (p *parser) bool(key string) bool {
	b, err := strconv.ParseBool(p.str(key))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return b
}

func (p *parser) float(key string) float64 {
	f, err := strconv.ParseFloat(p.str(key), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return f
}

// Validate reporta todos os valores fora do domínio.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.Quota.Limit <= 0 {
		add("QUOTA_LIMIT must be > 0")
	}
	if c.Quota.Interval <= 0 {
		add("QUOTA_INTERVAL must be > 0")
	}
	switch c.Quota.Strategy {
	case StrategyWindow, StrategyToken, StrategyRedis:
	default:
		add("QUOTA_STRATEGY must be one of window|token|redis, got %q", c.Quota.Strategy)
	}
	if c.Retry.MaxAttempts < 0 {
		add("RETRY_MAX_ATTEMPTS must be >= 0")
	}
	if c.Send.MaxInFlight < 0 {
		add("SEND_MAX_IN_FLIGHT must be >= 0")
	}
	if c.Send.SlotTimeout < 0 {
		add("SEND_SLOT_TIMEOUT must be >= 0")
	}
	if c.Send.HTTPTimeout <= 0 {
		add("HTTP_TIMEOUT must be > 0")
	}
	switch c.Stats.Backend {
	case BackendMemory, BackendRedis:
	default:
		add("STATS_BACKEND must be memory|redis, got %q", c.Stats.Backend)
	}
	if u, err := url.Parse(c.RegistryURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("REGISTRY_URL must be an absolute http(s) URL, got %q", c.RegistryURL)
	}
	if c.UsesRedis() && c.Redis.Addr == "" {
		add("REDIS_ADDR is required when a redis strategy or backend is selected")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		add("LOG_LEVEL: %w", err)
	}
	if !tracing.ValidExporter(c.Tracing.Exporter) {
		add("TRACING_EXPORTER must be none|stdout|otlp, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		add("TRACING_SAMPLE_RATE must be within [0, 1] (0 samples nothing)")
	}
	return errors.Join(errs...)
}
