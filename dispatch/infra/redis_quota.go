package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

// acquireScript faz check-and-increment atômico no Redis.
// KEYS[1] = contador; ARGV[1] = limite; ARGV[2] = ttl de segurança em ms.
var acquireScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return 0
end
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// resetScript zera o contador no máximo uma vez por janela, mesmo com vários
// processos rodando o próprio Resetter: quem cria o marcador primeiro reseta.
// KEYS[1] = contador; KEYS[2] = marcador; ARGV[1] = ttl do marcador em ms.
var resetScript = redis.NewScript(`
if redis.call('SET', KEYS[2], '1', 'NX', 'PX', ARGV[1]) then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisQuota é a quota de janela fixa guardada no Redis, para que vários
// processos do registrar dividam o mesmo limite.
type RedisQuota struct {
	rdb      *redis.Client
	prefix   string
	limit    int
	interval time.Duration
}

var _ domain.Quota = (*RedisQuota)(nil)

type RedisQuotaOption func(*RedisQuota)

func WithQuotaPrefix(prefix string) RedisQuotaOption {
	return func(q *RedisQuota) { q.prefix = strings.Trim(prefix, ":") }
}

func NewRedisQuota(rdb *redis.Client, limit int, interval time.Duration, opts ...RedisQuotaOption) *RedisQuota {
	q := &RedisQuota{
		rdb:      rdb,
		prefix:   "registrar:quota",
		limit:    limit,
		interval: interval,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQuota) counterKey() string { return q.prefix + ":count" }
func (q *RedisQuota) markerKey() string  { return q.prefix + ":reset" }

func (q *RedisQuota) TryAcquire(ctx context.Context) (bool, error) {
	// ttl de segurança: se nenhum processo resetar, a janela expira sozinha.
	ttl := 2 * q.interval
	n, err := acquireScript.Run(ctx, q.rdb, []string{q.counterKey()}, q.limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis quota acquire: %w", err)
	}
	return n == 1, nil
}

func (q *RedisQuota) Reset(ctx context.Context) error {
	// o marcador vive um pouco menos que a janela para o próximo tick conseguir resetar.
	markerTTL := q.interval - q.interval/10
	if markerTTL <= 0 {
		markerTTL = q.interval
	}
	if err := resetScript.Run(ctx, q.rdb, []string{q.counterKey(), q.markerKey()}, markerTTL.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis quota reset: %w", err)
	}
	return nil
}

func (q *RedisQuota) Limit() int { return q.limit }

// Count lê o contador da janela atual.
func (q *RedisQuota) Count(ctx context.Context) (int, error) {
	n, err := q.rdb.Get(ctx, q.counterKey()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis quota count: %w", err)
	}
	return n, nil
}
