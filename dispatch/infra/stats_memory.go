package infra

import (
	"context"
	"sync"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes, para o modo demo e para o /stats sem Redis.
//
// Não faz expiração; com WithTrackSubmissions o mapa por submissão cresce sem limite.
type MemoryStatsStore struct {
	mu           sync.Mutex
	total        map[domain.Outcome]int64
	bySubmission map[domain.SubmissionID]map[domain.Outcome]int64

	trackSubmissions bool
}

var (
	_ domain.StatsStore  = (*MemoryStatsStore)(nil)
	_ domain.StatsReader = (*MemoryStatsStore)(nil)
)

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackSubmissions(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackSubmissions = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		total:        make(map[domain.Outcome]int64),
		bySubmission: make(map[domain.SubmissionID]map[domain.Outcome]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	if s.trackSubmissions && ev.SubmissionID != "" {
		m := s.bySubmission[ev.SubmissionID]
		if m == nil {
			m = make(map[domain.Outcome]int64)
			s.bySubmission[ev.SubmissionID] = m
		}
		m[ev.Outcome]++
	}
	return nil
}

func (s *MemoryStatsStore) Totals(context.Context) (map[domain.Outcome]int64, error) {
	return s.Total(), nil
}

func (s *MemoryStatsStore) Total() map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Outcome]int64, len(s.total))
	for k, v := range s.total {
		out[k] = v
	}
	return out
}

// Count retorna o total de um resultado.
func (s *MemoryStatsStore) Count(o domain.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total[o]
}

func (s *MemoryStatsStore) BySubmission() map[domain.SubmissionID]map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.SubmissionID]map[domain.Outcome]int64, len(s.bySubmission))
	for id, m := range s.bySubmission {
		c := make(map[domain.Outcome]int64, len(m))
		for k, v := range m {
			c[k] = v
		}
		out[id] = c
	}
	return out
}
