package services

import (
	"sync"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	"github.com/patrickmn/go-cache"
)

// usageTotals is the record-derived part of Stats. The balance is never cached.
type usageTotals struct {
	count  int64
	tokens int64
	byType []models.TypeCount
}

// StatsCache memoizes per-user usage totals until the user's records change.
// Every Invalidate bumps the user's version; totals computed against an older
// version are never stored. Invalidation is process-local, so the cache only
// fits a single replica.
type StatsCache struct {
	mu       sync.Mutex
	c        *cache.Cache
	versions map[string]uint64
}

// NewStatsCache returns nil for a non-positive ttl; a nil cache is a no-op.
func NewStatsCache(ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		return nil
	}
	return &StatsCache{c: cache.New(ttl, 2*ttl), versions: map[string]uint64{}}
}

// get returns the cached totals, if any, and the version to hand back to put.
func (s *StatsCache) get(userID string) (usageTotals, uint64, bool) {
	if s == nil {
		return usageTotals{}, 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ver := s.versions[userID]
	if v, ok := s.c.Get(userID); ok {
		return v.(usageTotals), ver, true
	}
	return usageTotals{}, ver, false
}

// put stores t unless userID was invalidated after ver was read. It reports
// whether t is still current.
func (s *StatsCache) put(userID string, ver uint64, t usageTotals) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[userID] != ver {
		return false
	}
	s.c.SetDefault(userID, t)
	return true
}

// Invalidate drops userID's cached totals.
func (s *StatsCache) Invalidate(userID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[userID]++
	s.c.Delete(userID)
}
