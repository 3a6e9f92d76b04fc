// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowQuota: janela fixa em memória com contador atômico
//   - RedisQuota: janela fixa compartilhada entre processos via script Lua
//   - TokenBucketQuota: alternativa suave usando golang.org/x/time/rate
//   - Resetter: goroutine com ticker que zera a quota a cada intervalo
//   - DelayQueue: fila de retentativas (heap + um único timer)
//   - ChanPool: semáforo simples para envios em voo
//   - JSONSerializer, HTTPTransport: colaboradores do registry
//   - MemoryStatsStore, RedisStatsStore, StatusCache: observabilidade
package infra
