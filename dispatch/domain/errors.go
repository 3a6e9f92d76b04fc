package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded é interno: marca uma submissão adiada, nunca chega ao chamador.
	ErrQuotaExceeded = errors.New("quota exceeded for current window")
	// ErrSchedulerClosed indica submit depois do shutdown.
	ErrSchedulerClosed = errors.New("retry scheduler is closed")
	// ErrRetriesExhausted indica que a política de retentativa desistiu.
	ErrRetriesExhausted = errors.New("retry attempts exhausted")
	// ErrNoSendSlot marca uma submissão admitida que não conseguiu vaga de envio a tempo.
	ErrNoSendSlot = errors.New("no send slot available")
)

// StatusError é a resposta do registry fora da faixa 2xx.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry responded with status %d", e.StatusCode)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsStatusError retorna o StatusError embrulhado em err, se houver.
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
