package postgres

import (
	"context"
	"errors"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type balancesRepo struct {
	pool    *pgxpool.Pool
	initial int64
}

const balanceCols = `user_id, tokens_remaining, subscription_tier, last_updated_at`

func (r *balancesRepo) GetOrCreate(ctx context.Context, userID string) (models.Balance, error) {
	if b, err := r.Get(ctx, userID); err == nil {
		return b, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.Balance{}, err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO balances(user_id, tokens_remaining, subscription_tier, last_updated_at)
		 VALUES($1, $2, $3, now())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, r.initial, models.DefaultTier,
	)
	if err != nil {
		return models.Balance{}, err
	}
	return r.Get(ctx, userID)
}

func (r *balancesRepo) Get(ctx context.Context, userID string) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`SELECT `+balanceCols+`
		   FROM balances
		  WHERE user_id=$1`,
		userID,
	).Scan(&b.UserID, &b.TokensRemaining, &b.SubscriptionTier, &b.LastUpdatedAt)
	return b, notFound(err)
}

// Debit is a conditional decrement: the WHERE clause re-checks the balance
// inside the same statement, so two concurrent debits can never both pass.
func (r *balancesRepo) Debit(ctx context.Context, userID string, amount int64) (models.DebitResult, error) {
	var left int64
	err := r.pool.QueryRow(ctx,
		`UPDATE balances
		    SET tokens_remaining = tokens_remaining - $2,
		        last_updated_at = now()
		  WHERE user_id = $1 AND tokens_remaining >= $2
		  RETURNING tokens_remaining`,
		userID, amount,
	).Scan(&left)
	if err == nil {
		return models.DebitResult{OK: true, Balance: left}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.DebitResult{}, err
	}
	b, err := r.Get(ctx, userID)
	if err != nil {
		return models.DebitResult{}, err
	}
	return models.DebitResult{OK: false, Balance: b.TokensRemaining}, nil
}

func (r *balancesRepo) Credit(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`UPDATE balances
		    SET tokens_remaining = tokens_remaining + $2,
		        last_updated_at = now()
		  WHERE user_id = $1
		  RETURNING `+balanceCols,
		userID, amount,
	).Scan(&b.UserID, &b.TokensRemaining, &b.SubscriptionTier, &b.LastUpdatedAt)
	return b, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
