package domain

import (
	"context"
	"time"
)

// Outcome é o resultado registrado em cada passo de uma submissão.
type Outcome string

const (
	OutcomeAdmitted  Outcome = "admitted"
	OutcomeDeferred  Outcome = "deferred"
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
)

// Outcomes lista todos os resultados, na ordem do fluxo.
var Outcomes = []Outcome{OutcomeAdmitted, OutcomeDeferred, OutcomeDelivered, OutcomeFailed, OutcomeAbandoned}

type StatsEvent struct {
	SubmissionID SubmissionID
	Outcome      Outcome
	Attempt      int
	At           time.Time
}

// StatsStore é a estratégia de persistência das estatísticas do despachante.
//
// O despachante trata erro como best-effort (loga e segue).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// StatsReader é implementado por stores que sabem devolver totais por resultado.
type StatsReader interface {
	Totals(ctx context.Context) (map[Outcome]int64, error)
}

// StatusStore guarda o último estado conhecido de cada submissão.
type StatusStore interface {
	Put(ctx context.Context, st Status)
	Get(ctx context.Context, id SubmissionID) (Status, bool)
}
