package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/generator"
	"github.com/baharkarakas/copywriter-backend/internal/metrics"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/baharkarakas/copywriter-backend/internal/worker"
)

type ContentGenerator interface {
	Generate(ctx context.Context, ct models.ContentType, prompt, model string) (generator.Result, error)
}

type GenerateResult struct {
	Generation      models.Generation `json:"generation"`
	TokensRemaining int64             `json:"tokensRemaining"`
}

type GenerationService struct {
	gen        ContentGenerator
	ledger     *BalanceService
	gens       repo.Generations
	cache      *StatsCache
	audit      auditor
	minBalance int64
}

type GenerationDeps struct {
	Generator ContentGenerator
	Ledger    *BalanceService
	Store     repo.Generations
	AuditLogs repo.AuditLogs
	Pool      *worker.Pool
	Cache     *StatsCache
	// MinBalance, when positive, rejects users below it before the backend is called.
	MinBalance int64
}

func NewGenerationService(d GenerationDeps) *GenerationService {
	return &GenerationService{
		gen:        d.Generator,
		ledger:     d.Ledger,
		gens:       d.Store,
		cache:      d.Cache,
		audit:      auditor{log: d.AuditLogs, wp: d.Pool},
		minBalance: d.MinBalance,
	}
}

// Generate produces content, bills it and records it. The backend runs first;
// the debit happens only after it succeeds and the record is written only
// after the debit commits.
func (s *GenerationService) Generate(ctx context.Context, userID string, ct models.ContentType, prompt, model string) (GenerateResult, error) {
	if prompt == "" {
		return GenerateResult{}, ErrMissingPrompt
	}
	if !ct.Valid() {
		return GenerateResult{}, ErrInvalidContentType
	}
	if err := s.preflight(ctx, userID); err != nil {
		return GenerateResult{}, err
	}

	start := time.Now()
	out, err := s.gen.Generate(ctx, ct, prompt, model)
	metrics.GenerationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		reason := "backend"
		if errors.Is(err, generator.ErrRateLimited) {
			reason = "rate_limited"
		}
		metrics.GenerationFailures.WithLabelValues(reason).Inc()
		slog.Warn("generation failed", "user_id", userID, "content_type", ct, "err", err)
		return GenerateResult{}, &GenerationError{ContentType: ct, Err: err}
	}

	// Once the backend has answered, a client disconnect must not split the
	// debit from the record.
	ctx = context.WithoutCancel(ctx)

	left, err := s.ledger.CheckAndDebit(ctx, userID, out.TokensUsed)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.GenerationFailures.WithLabelValues("insufficient").Inc()
		}
		return GenerateResult{}, err
	}

	g, err := s.gens.Create(ctx, models.Generation{
		UserID:      userID,
		ContentType: ct,
		Prompt:      prompt,
		Output:      out.Text,
		TokensUsed:  out.TokensUsed,
		Model:       out.Model,
	})
	if err != nil {
		// The debit stands; there is no refund path.
		metrics.GenerationFailures.WithLabelValues("persist").Inc()
		slog.Error("generation debited but not recorded",
			"user_id", userID, "content_type", ct, "tokens", out.TokensUsed, "balance", left, "err", err)
		return GenerateResult{}, fmt.Errorf("save generation: %w", err)
	}

	s.cache.Invalidate(userID)
	metrics.GenerationsTotal.WithLabelValues(string(ct)).Inc()
	slog.Info("generation committed", "user_id", userID, "content_type", ct, "id", g.ID, "tokens", g.TokensUsed, "balance", left)
	return GenerateResult{Generation: g, TokensRemaining: left}, nil
}

func (s *GenerationService) preflight(ctx context.Context, userID string) error {
	if s.minBalance <= 0 {
		return nil
	}
	b, err := s.ledger.Current(ctx, userID)
	if err != nil {
		return err
	}
	if b.TokensRemaining < s.minBalance {
		metrics.GenerationFailures.WithLabelValues("insufficient").Inc()
		return &InsufficientBalanceError{Remaining: b.TokensRemaining, Required: s.minBalance}
	}
	return nil
}

// Get returns a generation owned by userID.
func (s *GenerationService) Get(ctx context.Context, userID, id string) (models.Generation, error) {
	g, err := s.gens.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Generation{}, ErrNotFound
	}
	if err != nil {
		return models.Generation{}, err
	}
	if g.UserID != userID {
		return models.Generation{}, ErrForbidden
	}
	return g, nil
}

// Delete removes a generation owned by userID. Tokens are not refunded.
func (s *GenerationService) Delete(ctx context.Context, userID, id string) error {
	g, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.gens.Delete(ctx, g.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.cache.Invalidate(userID)
	s.audit.record("generation", g.ID, "delete", map[string]any{"user_id": userID, "content_type": string(g.ContentType)})
	return nil
}
