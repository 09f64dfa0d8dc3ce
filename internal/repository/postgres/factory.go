package postgres

import (
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Balances    repo.Balances
	Generations repo.Generations
	AuditLogs   repo.AuditLogs
}

// NewRepositories wires every table onto one pool. New balances start at signupTokens.
func NewRepositories(pool *pgxpool.Pool, signupTokens int64) Repositories {
	return Repositories{
		Balances:    &balancesRepo{pool: pool, initial: signupTokens},
		Generations: &generationsRepo{pool},
		AuditLogs:   &auditLogsRepo{pool},
	}
}
