package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

// SendSlots reserva a vaga de envio de uma submissão já admitida.
//
// Sem Pool, os envios não são limitados. Com Timeout > 0, a espera é limitada
// e o erro devolvido embrulha domain.ErrNoSendSlot: o despachante então adia a
// submissão de novo (a unidade de quota já consumida não volta).
type SendSlots struct {
	Pool    domain.SlotPool
	Timeout time.Duration
}

func (s SendSlots) Reserve(ctx context.Context, id domain.SubmissionID) (release func(), err error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		if s.Timeout > 0 {
			return nil, fmt.Errorf("submission %s: %w within %s (%d/%d in flight)", id, domain.ErrNoSendSlot, s.Timeout, s.Pool.InUse(), s.Pool.Capacity())
		}
		return nil, fmt.Errorf("submission %s: %w: %w", id, domain.ErrNoSendSlot, ctx.Err())
	}
	return release, nil
}

// InFlight retorna quantos envios estão em andamento (0 sem pool).
func (s SendSlots) InFlight() int {
	if s.Pool == nil {
		return 0
	}
	return s.Pool.InUse()
}
