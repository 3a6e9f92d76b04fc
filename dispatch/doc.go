// Package dispatch envia documentos assinados a um registry remoto respeitando
// uma quota de N submissões por intervalo fixo.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (admissão, vagas de envio, política de retentativa)
//   - infra: implementações concretas (janela atômica, Redis, token bucket, fila de atraso,
//     serializer JSON, transport HTTP, stats, status)
//   - dispatch (este pacote): o Dispatcher com seu ciclo de vida e o intake HTTP (chi)
//
// Fluxo de uma submissão:
//
//  1. Consulta a quota (check-and-increment atômico)
//  2. Se admitida, reserva uma vaga de envio, serializa e faz o POST
//  3. Se negada, agenda a mesma submissão para depois de um intervalo
//  4. Falha de transporte é logada e registrada, mas não volta para a fila
//
// Nada é devolvido ao chamador de Submit além do ID da submissão; o estado de
// cada uma pode ser consultado via Status.
package dispatch
