package domain

import "context"

// SlotPool limita quantos POSTs ao registry ficam em voo ao mesmo tempo.
// A vaga é pedida depois da admissão na quota, nunca antes, para que uma
// submissão esperando vaga não segure a janela.
type SlotPool interface {
	// Acquire devolve um release idempotente, ou ok=false se o ctx encerrar antes.
	Acquire(ctx context.Context) (release func(), ok bool)
	Capacity() int
	InUse() int
}
