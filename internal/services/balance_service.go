package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/baharkarakas/copywriter-backend/internal/metrics"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/baharkarakas/copywriter-backend/internal/worker"
)

// BalanceService is the token ledger. Every mutation goes through the
// repository's single-statement Debit/Credit; nothing here reads a balance
// and writes it back.
type BalanceService struct {
	r     repo.Balances
	audit auditor
}

func NewBalanceService(r repo.Balances, l repo.AuditLogs, wp *worker.Pool) *BalanceService {
	return &BalanceService{r: r, audit: auditor{log: l, wp: wp}}
}

func (s *BalanceService) Current(ctx context.Context, userID string) (models.Balance, error) {
	return s.r.GetOrCreate(ctx, userID)
}

// CheckAndDebit takes amount from the user's balance if it covers it and
// returns the new balance. Otherwise nothing changes and the error is an
// *InsufficientBalanceError.
func (s *BalanceService) CheckAndDebit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	res, err := s.r.Debit(ctx, userID, amount)
	if errors.Is(err, repo.ErrNotFound) {
		if _, err = s.r.GetOrCreate(ctx, userID); err != nil {
			return 0, err
		}
		res, err = s.r.Debit(ctx, userID, amount)
	}
	if err != nil {
		return 0, err
	}

	if !res.OK {
		metrics.InsufficientBalance.Inc()
		slog.Info("debit rejected", "user_id", userID, "tokens", amount, "balance", res.Balance)
		return res.Balance, &InsufficientBalanceError{Remaining: res.Balance, Required: amount}
	}

	metrics.TokensDebited.Add(float64(amount))
	s.audit.record("balance", userID, "debit", map[string]any{"amount": amount, "balance_after": res.Balance})
	return res.Balance, nil
}

func (s *BalanceService) Credit(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	if amount <= 0 {
		return models.Balance{}, ErrInvalidAmount
	}
	if _, err := s.r.GetOrCreate(ctx, userID); err != nil {
		return models.Balance{}, err
	}
	b, err := s.r.Credit(ctx, userID, amount)
	if err != nil {
		return models.Balance{}, err
	}
	s.audit.record("balance", userID, "credit", map[string]any{"amount": amount, "balance_after": b.TokensRemaining})
	return b, nil
}
