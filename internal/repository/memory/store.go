// Package memory holds map-backed repositories for tests and single-process runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/google/uuid"
)

type Repositories struct {
	Balances    *Balances
	Generations *Generations
	AuditLogs   *AuditLogs
}

func NewRepositories(signupTokens int64) Repositories {
	return Repositories{
		Balances:    NewBalances(signupTokens),
		Generations: NewGenerations(),
		AuditLogs:   &AuditLogs{},
	}
}

// ----------------- balances -----------------

type Balances struct {
	mu      sync.Mutex
	initial int64
	rows    map[string]*models.Balance
}

func NewBalances(signupTokens int64) *Balances {
	return &Balances{initial: signupTokens, rows: map[string]*models.Balance{}}
}

// Set seeds or overwrites a balance.
func (s *Balances) Set(userID string, tokens int64, tier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tier == "" {
		tier = models.DefaultTier
	}
	s.rows[userID] = &models.Balance{UserID: userID, TokensRemaining: tokens, SubscriptionTier: tier, LastUpdatedAt: time.Now().UTC()}
}

func (s *Balances) GetOrCreate(_ context.Context, userID string) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[userID]
	if !ok {
		b = &models.Balance{UserID: userID, TokensRemaining: s.initial, SubscriptionTier: models.DefaultTier, LastUpdatedAt: time.Now().UTC()}
		s.rows[userID] = b
	}
	return *b, nil
}

func (s *Balances) Get(_ context.Context, userID string) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[userID]
	if !ok {
		return models.Balance{}, repo.ErrNotFound
	}
	return *b, nil
}

func (s *Balances) Debit(_ context.Context, userID string, amount int64) (models.DebitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[userID]
	if !ok {
		return models.DebitResult{}, repo.ErrNotFound
	}
	if b.TokensRemaining < amount {
		return models.DebitResult{OK: false, Balance: b.TokensRemaining}, nil
	}
	b.TokensRemaining -= amount
	b.LastUpdatedAt = time.Now().UTC()
	return models.DebitResult{OK: true, Balance: b.TokensRemaining}, nil
}

func (s *Balances) Credit(_ context.Context, userID string, amount int64) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[userID]
	if !ok {
		return models.Balance{}, repo.ErrNotFound
	}
	b.TokensRemaining += amount
	b.LastUpdatedAt = time.Now().UTC()
	return *b, nil
}

// ----------------- generations -----------------

type storedGeneration struct {
	g   models.Generation
	seq uint64
}

type Generations struct {
	mu   sync.RWMutex
	seq  uint64
	rows map[string]storedGeneration
	now  func() time.Time
}

func NewGenerations() *Generations {
	return &Generations{rows: map[string]storedGeneration{}, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Generations) Create(_ context.Context, g models.Generation) (models.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = s.now()
	s.seq++
	s.rows[g.ID] = storedGeneration{g: g, seq: s.seq}
	return g, nil
}

func (s *Generations) GetByID(_ context.Context, id string) (models.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return models.Generation{}, repo.ErrNotFound
	}
	return r.g, nil
}

// owned returns the owner's rows newest first; callers hold the lock.
func (s *Generations) owned(ownerID string) []storedGeneration {
	var out []storedGeneration
	for _, r := range s.rows {
		if r.g.UserID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].g.CreatedAt.Equal(out[j].g.CreatedAt) {
			return out[i].g.CreatedAt.After(out[j].g.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func (s *Generations) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]models.Generation, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.owned(ownerID)
	page := []models.Generation{}
	if offset < 0 {
		offset = 0
	}
	for i := offset; i < len(rows) && len(page) < limit; i++ {
		page = append(page, rows[i].g)
	}
	return page, int64(len(rows)), nil
}

func (s *Generations) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.owned(ownerID))), nil
}

func (s *Generations) SumTokensByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.owned(ownerID) {
		n += r.g.TokensUsed
	}
	return n, nil
}

func (s *Generations) CountByContentType(_ context.Context, ownerID string) (map[models.ContentType]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[models.ContentType]int64{}
	for _, r := range s.owned(ownerID) {
		out[r.g.ContentType]++
	}
	return out, nil
}

func (s *Generations) UsageByOwner(_ context.Context, ownerID string) (models.Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := models.Usage{ByType: map[models.ContentType]int64{}}
	for _, r := range s.owned(ownerID) {
		u.Count++
		u.Tokens += r.g.TokensUsed
		u.ByType[r.g.ContentType]++
	}
	return u, nil
}

func (s *Generations) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// ----------------- audit logs -----------------

type AuditLogs struct {
	mu   sync.Mutex
	rows []models.AuditLog
}

func (s *AuditLogs) Create(_ context.Context, l models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, l)
	return nil
}

// All returns a copy of the recorded entries.
func (s *AuditLogs) All() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.rows...)
}
