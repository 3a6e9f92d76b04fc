package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketQuota_BurstEqualsLimit(t *testing.T) {
	q := NewTokenBucketQuota(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := q.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := q.TryAcquire(ctx)
	require.False(t, ok)
	require.Equal(t, 3, q.Limit())
}

func TestTokenBucketQuota_ResetIsNoop(t *testing.T) {
	q := NewTokenBucketQuota(1, time.Hour)
	ctx := context.Background()

	ok, _ := q.TryAcquire(ctx)
	require.True(t, ok)
	require.NoError(t, q.Reset(ctx))

	ok, _ = q.TryAcquire(ctx)
	require.False(t, ok, "token bucket refills over time, not on reset")
}

func TestTokenBucketQuota_Refills(t *testing.T) {
	q := NewTokenBucketQuota(2, 40*time.Millisecond)
	ctx := context.Background()

	_, _ = q.TryAcquire(ctx)
	_, _ = q.TryAcquire(ctx)

	require.Eventually(t, func() bool {
		ok, _ := q.TryAcquire(ctx)
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestTokenBucketQuota_NonPositiveLimitClampsToOne(t *testing.T) {
	q := NewTokenBucketQuota(0, time.Second)
	require.Equal(t, 1, q.Limit())
}
