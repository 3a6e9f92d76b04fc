package infra

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

// TokenBucketQuota é uma estratégia alternativa baseada em token-bucket (x/time/rate):
// taxa = limit/interval, burst = limit.
//
// Observação: o bucket reabastece continuamente, então Reset não faz nada e uma
// janela fixa pode ver até 2*limit admissões. Use a WindowQuota quando o limite
// por janela precisa ser estrito.
type TokenBucketQuota struct {
	lim   *rate.Limiter
	limit int
}

var _ domain.Quota = (*TokenBucketQuota)(nil)

func NewTokenBucketQuota(limit int, interval time.Duration) *TokenBucketQuota {
	if limit <= 0 {
		limit = 1
	}
	every := interval / time.Duration(limit)
	return &TokenBucketQuota{
		lim:   rate.NewLimiter(rate.Every(every), limit),
		limit: limit,
	}
}

func (q *TokenBucketQuota) TryAcquire(context.Context) (bool, error) {
	return q.lim.Allow(), nil
}

func (q *TokenBucketQuota) Reset(context.Context) error { return nil }

func (q *TokenBucketQuota) Limit() int { return q.limit }
