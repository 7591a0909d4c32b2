package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

// GenresRepository provides persistence helpers for genres.
type GenresRepository struct {
	pool *pgxpool.Pool
}

// GenreCreateParams captures the payload required to create a genre.
type GenreCreateParams struct {
	Name string `validate:"required,max=100"`
}

// Create inserts a genre. Duplicate names return ErrConflict.
func (r *GenresRepository) Create(ctx context.Context, params GenreCreateParams) (domain.Genre, error) {
	if err := validation.Struct(params); err != nil {
		return domain.Genre{}, err
	}
	const query = `
        INSERT INTO genres (id, name)
        VALUES ($1,$2)
        RETURNING id, name, created_at
    `
	g, err := scanGenre(r.pool.QueryRow(ctx, query, uuid.New(), params.Name))
	if err != nil {
		return domain.Genre{}, translateError(err)
	}
	return g, nil
}

// GetByID fetches a genre by identifier.
func (r *GenresRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Genre, error) {
	g, err := scanGenre(r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM genres WHERE id = $1`, id))
	if err != nil {
		return domain.Genre{}, translateError(err)
	}
	return g, nil
}

// List returns genres ordered by name.
func (r *GenresRepository) List(ctx context.Context, page Page) ([]domain.Genre, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, created_at
        FROM genres
        ORDER BY name
        LIMIT $1 OFFSET $2
    `, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return collectGenres(rows)
}

// Count returns the number of genres.
func (r *GenresRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM genres`))
}

func collectGenres(rows pgx.Rows) ([]domain.Genre, error) {
	defer rows.Close()
	items := make([]domain.Genre, 0)
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func scanGenre(row pgx.Row) (domain.Genre, error) {
	var g domain.Genre
	err := row.Scan(&g.ID, &g.Name, &g.CreatedAt)
	return g, err
}
