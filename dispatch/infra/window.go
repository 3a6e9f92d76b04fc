package infra

import (
	"context"
	"sync/atomic"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

// WindowQuota é a quota de janela fixa em memória.
//
// O contador só muda por TryAcquire (incremento condicionado a count < limit,
// via compare-and-swap) e por Reset (zero). Invariante: 0 <= count <= limit.
type WindowQuota struct {
	limit int64
	count atomic.Int64
}

var _ domain.Quota = (*WindowQuota)(nil)

func NewWindowQuota(limit int) *WindowQuota {
	return &WindowQuota{limit: int64(limit)}
}

func (q *WindowQuota) TryAcquire(context.Context) (bool, error) {
	for {
		cur := q.count.Load()
		if cur >= q.limit {
			return false, nil
		}
		if q.count.CompareAndSwap(cur, cur+1) {
			return true, nil
		}
	}
}

func (q *WindowQuota) Reset(context.Context) error {
	q.count.Store(0)
	return nil
}

func (q *WindowQuota) Limit() int { return int(q.limit) }

// Count retorna quantas admissões já ocorreram na janela atual.
func (q *WindowQuota) Count() int { return int(q.count.Load()) }
