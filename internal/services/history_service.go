package services

import (
	"context"
	"math"
	"sort"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type HistoryPage struct {
	Generations []models.Generation `json:"generations"`
	Pagination  Pagination          `json:"pagination"`
}

// NormalizePage applies the defaults to non-positive page/limit values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// PageCount is ceil(total/limit).
func PageCount(total int64, limit int) int64 {
	if limit < 1 || total <= 0 {
		return 0
	}
	return (total-1)/int64(limit) + 1
}

type HistoryService struct {
	gens   repo.Generations
	ledger *BalanceService
	cache  *StatsCache
}

func NewHistoryService(g repo.Generations, ledger *BalanceService, cache *StatsCache) *HistoryService {
	return &HistoryService{gens: g, ledger: ledger, cache: cache}
}

// pageOffset is (page-1)*limit, saturating at math.MaxInt so a far page reads as empty.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func (s *HistoryService) History(ctx context.Context, userID string, page, limit int) (HistoryPage, error) {
	page, limit = NormalizePage(page, limit)
	gens, total, err := s.gens.ListByOwner(ctx, userID, limit, pageOffset(page, limit))
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{
		Generations: gens,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: PageCount(total, limit),
		},
	}, nil
}

func (s *HistoryService) Stats(ctx context.Context, userID string) (models.Stats, error) {
	totals, err := s.totals(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}

	bal, err := s.ledger.Current(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{
		TotalGenerations:  totals.count,
		TotalTokensUsed:   totals.tokens,
		TokensRemaining:   bal.TokensRemaining,
		SubscriptionTier:  bal.SubscriptionTier,
		GenerationsByType: totals.byType,
	}, nil
}

// totals serves usage from the cache or the store. A read that raced with a
// write to the same user's records is repeated once so the caller sees it.
func (s *HistoryService) totals(ctx context.Context, userID string) (usageTotals, error) {
	var t usageTotals
	for attempt := 0; attempt < 2; attempt++ {
		cached, ver, ok := s.cache.get(userID)
		if ok {
			return cached, nil
		}
		u, err := s.gens.UsageByOwner(ctx, userID)
		if err != nil {
			return usageTotals{}, err
		}
		t = toTotals(u)
		if s.cache.put(userID, ver, t) {
			return t, nil
		}
	}
	return t, nil
}

func toTotals(u models.Usage) usageTotals {
	t := usageTotals{count: u.Count, tokens: u.Tokens, byType: make([]models.TypeCount, 0, len(u.ByType))}
	for ct, n := range u.ByType {
		t.byType = append(t.byType, models.TypeCount{ContentType: ct, Count: n})
	}
	sort.Slice(t.byType, func(i, j int) bool { return t.byType[i].ContentType < t.byType[j].ContentType })
	return t
}
