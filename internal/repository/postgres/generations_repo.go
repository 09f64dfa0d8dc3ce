package postgres

import (
	"context"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type generationsRepo struct{ pool *pgxpool.Pool }

const generationCols = `id, user_id, content_type, prompt, output, tokens_used, model, created_at`

func scanGeneration(row pgx.Row) (models.Generation, error) {
	var g models.Generation
	err := row.Scan(&g.ID, &g.UserID, &g.ContentType, &g.Prompt, &g.Output, &g.TokensUsed, &g.Model, &g.CreatedAt)
	return g, err
}

func (r *generationsRepo) Create(ctx context.Context, g models.Generation) (models.Generation, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	const q = `
INSERT INTO generations (id, user_id, content_type, prompt, output, tokens_used, model)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + generationCols
	return scanGeneration(r.pool.QueryRow(ctx, q,
		g.ID, g.UserID, g.ContentType, g.Prompt, g.Output, g.TokensUsed, g.Model,
	))
}

func (r *generationsRepo) GetByID(ctx context.Context, id string) (models.Generation, error) {
	if uuid.Validate(id) != nil {
		return models.Generation{}, repo.ErrNotFound
	}
	g, err := scanGeneration(r.pool.QueryRow(ctx,
		`SELECT `+generationCols+`
		   FROM generations
		  WHERE id=$1`,
		id,
	))
	return g, notFound(err)
}

func (r *generationsRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Generation, int64, error) {
	total, err := r.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+generationCols+`
		   FROM generations
		  WHERE user_id=$1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	return out, total, rows.Err()
}

func (r *generationsRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM generations WHERE user_id=$1`, ownerID).Scan(&n)
	return n, err
}

func (r *generationsRepo) SumTokensByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0) FROM generations WHERE user_id=$1`, ownerID,
	).Scan(&n)
	return n, err
}

func (r *generationsRepo) CountByContentType(ctx context.Context, ownerID string) (map[models.ContentType]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT content_type, count(*)
		   FROM generations
		  WHERE user_id=$1
		  GROUP BY content_type`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[models.ContentType]int64{}
	for rows.Next() {
		var ct models.ContentType
		var n int64
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, err
		}
		out[ct] = n
	}
	return out, rows.Err()
}

// UsageByOwner derives all totals from a single grouped scan.
func (r *generationsRepo) UsageByOwner(ctx context.Context, ownerID string) (models.Usage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT content_type, count(*), COALESCE(SUM(tokens_used), 0)
		   FROM generations
		  WHERE user_id=$1
		  GROUP BY content_type`,
		ownerID,
	)
	if err != nil {
		return models.Usage{}, err
	}
	defer rows.Close()

	u := models.Usage{ByType: map[models.ContentType]int64{}}
	for rows.Next() {
		var ct models.ContentType
		var n, tokens int64
		if err := rows.Scan(&ct, &n, &tokens); err != nil {
			return models.Usage{}, err
		}
		u.ByType[ct] = n
		u.Count += n
		u.Tokens += tokens
	}
	return u, rows.Err()
}

func (r *generationsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM generations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
