package domain

import "time"

// Scheduler re-apresenta submissões negadas depois de um atraso.
//
// Schedule nunca bloqueia o chamador e retorna false se o scheduler já foi
// cancelado. CancelAll impede que retentativas pendentes disparem e devolve
// quantas foram descartadas.
type Scheduler interface {
	Schedule(sub Submission, delay time.Duration) bool
	CancelAll() int
	Pending() int
}
