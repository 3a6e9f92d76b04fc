package application

import (
	"context"
	"time"

	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/internal/log"
)

// AdmissionService concentra a regra de admissão contra a quota.
//
// Ele não sabe nada sobre HTTP nem sobre o registry, apenas retorna uma decisão.
type AdmissionService struct {
	Quota      domain.Quota
	RetryAfter time.Duration
}

// Decide consulta a quota uma vez. Erro do backend vira negação: a submissão
// é adiada em vez de perdida.
func (s AdmissionService) Decide(ctx context.Context) domain.Decision {
	if s.Quota == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	ok, err := s.Quota.TryAcquire(ctx)
	if err != nil {
		log.ErrorErr(log.CatQuota, "quota check failed, deferring", err)
		return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
	}
	if ok {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}
