package infra

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

const (
	DefaultStatusTTL     = 1 * time.Hour
	DefaultStatusCleanup = 10 * time.Minute
)

// StatusCache guarda o último estado de cada submissão com expiração.
type StatusCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

var _ domain.StatusStore = (*StatusCache)(nil)

func NewStatusCache(ttl, cleanupInterval time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultStatusCleanup
	}
	return &StatusCache{cache: gocache.New(ttl, cleanupInterval), ttl: ttl}
}

func (c *StatusCache) Put(_ context.Context, st domain.Status) {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	c.cache.Set(string(st.ID), st, c.ttl)
}

func (c *StatusCache) Get(_ context.Context, id domain.SubmissionID) (domain.Status, bool) {
	v, found := c.cache.Get(string(id))
	if !found {
		return domain.Status{}, false
	}
	st, ok := v.(domain.Status)
	if !ok {
		return domain.Status{}, false
	}
	return st, true
}

// Len retorna quantas submissões estão no cache (inclui expiradas ainda não limpas).
func (c *StatusCache) Len() int { return c.cache.ItemCount() }
