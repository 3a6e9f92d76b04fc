package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisQuota_AdmitsUpToLimit(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewRedisQuota(rdb, 2, time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := q.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, ok, "acquire %d", i+1)
	}
	ok, err := q.TryAcquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n, "denied acquire must not increment")
}

func TestRedisQuota_CountOnEmptyWindowIsZero(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewRedisQuota(rdb, 2, time.Second)

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedisQuota_SharedAcrossInstances(t *testing.T) {
	_, rdb := newTestRedis(t)
	a := NewRedisQuota(rdb, 3, time.Second, WithQuotaPrefix("shared:"))
	b := NewRedisQuota(rdb, 3, time.Second, WithQuotaPrefix("shared"))
	ctx := context.Background()

	admitted := 0
	for i := 0; i < 5; i++ {
		for _, q := range []*RedisQuota{a, b} {
			ok, err := q.TryAcquire(ctx)
			require.NoError(t, err)
			if ok {
				admitted++
			}
		}
	}
	require.Equal(t, 3, admitted)
}

func TestRedisQuota_ResetOncePerWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewRedisQuota(rdb, 2, time.Second)
	ctx := context.Background()

	_, _ = q.TryAcquire(ctx)
	_, _ = q.TryAcquire(ctx)
	require.NoError(t, q.Reset(ctx))

	n, _ := q.Count(ctx)
	require.Zero(t, n)

	_, _ = q.TryAcquire(ctx)
	// outro processo tentando resetar na mesma janela não zera de novo
	require.NoError(t, q.Reset(ctx))
	n, _ = q.Count(ctx)
	require.Equal(t, 1, n)

	mr.FastForward(time.Second)
	require.NoError(t, q.Reset(ctx))
	n, _ = q.Count(ctx)
	require.Zero(t, n)
}

func TestRedisQuota_CounterHasSafetyTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewRedisQuota(rdb, 2, time.Second, WithQuotaPrefix("ttl"))

	_, err := q.TryAcquire(context.Background())
	require.NoError(t, err)
	require.Greater(t, mr.TTL("ttl:count"), time.Duration(0))
}

func TestRedisQuota_ErrorsWhenRedisIsDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewRedisQuota(rdb, 2, time.Second)
	mr.Close()

	ok, err := q.TryAcquire(context.Background())
	require.Error(t, err)
	require.False(t, ok)
	require.Error(t, q.Reset(context.Background()))
}
