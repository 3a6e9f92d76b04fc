// Package application contém os casos de uso do despachante: decidir se uma
// submissão entra agora ou é adiada, reservar vaga de envio com timeout e
// aplicar a política de retentativa.
//
// Ele depende apenas do pacote domain e não conhece net/http nem Redis.
// Ex.: AdmissionService.Decide(ctx) retorna uma Decision (admitida ou adiada + retry-after).
package application
