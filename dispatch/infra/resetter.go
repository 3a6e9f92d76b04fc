package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/internal/log"
)

// resetTimeout limita um Reset remoto (ex.: Redis) para não atrasar o próximo tick.
const resetTimeout = 2 * time.Second

// Resetter zera a quota a cada intervalo, independente do tráfego.
//
// O primeiro reset acontece no Start (tempo 0); depois, um por tick.
// O ticker é a fonte da verdade: um envio em andamento nunca atrasa o reset.
type Resetter struct {
	quota domain.Quota
	every time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	windows   atomic.Int64
	lastReset atomic.Int64
}

func NewResetter(quota domain.Quota, every time.Duration) *Resetter {
	return &Resetter{quota: quota, every: every}
}

// Start inicia a goroutine de reset. Chamadas repetidas não fazem nada.
// Pare com Stop ou cancelando o contexto.
func (r *Resetter) Start(ctx context.Context) {
	if r.every <= 0 || r.quota == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	r.reset(ctx)

	t := time.NewTicker(r.every)
	go func(done chan struct{}) {
		defer close(done)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.reset(ctx)
			}
		}
	}(r.done)
}

// Stop encerra a goroutine e espera ela sair.
func (r *Resetter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Windows retorna quantos resets já aconteceram (janelas abertas).
func (r *Resetter) Windows() int64 { return r.windows.Load() }

// LastReset retorna o instante do último reset (zero se nunca houve).
func (r *Resetter) LastReset() time.Time {
	ns := r.lastReset.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (r *Resetter) Interval() time.Duration { return r.every }

func (r *Resetter) reset(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	if err := r.quota.Reset(rctx); err != nil {
		log.ErrorErr(log.CatQuota, "quota reset failed", err)
		return
	}
	n := r.windows.Add(1)
	r.lastReset.Store(time.Now().UnixNano())
	log.Debug(log.CatQuota, "window opened", "window", n, "limit", r.quota.Limit())
}
