package domain

import (
	"context"
	"time"
)

// Quota é o controlador de admissão: no máximo Limit() admissões por janela.
//
// TryAcquire verifica e incrementa o contador de forma atômica; quando nega,
// o contador não muda. Reset zera o contador e é chamado pelo ciclo de vida,
// uma vez por intervalo, independente do tráfego.
//
// A implementação em memória nunca retorna erro; backends remotos (ex.: Redis)
// podem falhar, e a camada application trata erro como negação.
type Quota interface {
	TryAcquire(ctx context.Context) (bool, error)
	Reset(ctx context.Context) error
	Limit() int
}

type Decision struct {
	Allowed bool
	// RetryAfter é o atraso até re-apresentar a submissão quando negada.
	RetryAfter time.Duration
}
