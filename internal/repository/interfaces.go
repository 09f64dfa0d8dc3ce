package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/copywriter-backend/internal/models"
)

// ErrNotFound is returned by every implementation when the addressed row does not exist.
var ErrNotFound = errors.New("repository: not found")

type Balances interface {
	GetOrCreate(ctx context.Context, userID string) (models.Balance, error)
	Get(ctx context.Context, userID string) (models.Balance, error)

	// Debit subtracts amount only if the stored balance still covers it, as a
	// single indivisible operation against the store. A missing balance row
	// yields ErrNotFound.
	Debit(ctx context.Context, userID string, amount int64) (models.DebitResult, error)
	Credit(ctx context.Context, userID string, amount int64) (models.Balance, error)
}

type Generations interface {
	Create(ctx context.Context, g models.Generation) (models.Generation, error)
	GetByID(ctx context.Context, id string) (models.Generation, error)

	// ListByOwner returns one page ordered by created_at desc plus the owner's total.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Generation, int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	SumTokensByOwner(ctx context.Context, ownerID string) (int64, error)
	CountByContentType(ctx context.Context, ownerID string) (map[models.ContentType]int64, error)
	// UsageByOwner returns count, token sum and per-type counts from one snapshot.
	UsageByOwner(ctx context.Context, ownerID string) (models.Usage, error)
	Delete(ctx context.Context, id string) error
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
