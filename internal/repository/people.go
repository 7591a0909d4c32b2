package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

// PersonCreateParams bundles the fields shared by directors and actors.
type PersonCreateParams struct {
	Name      string `validate:"required,max=255"`
	BirthDate *time.Time
}

// DirectorsRepository provides persistence helpers for directors.
type DirectorsRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new director.
func (r *DirectorsRepository) Create(ctx context.Context, params PersonCreateParams) (domain.Director, error) {
	if err := validation.Struct(params); err != nil {
		return domain.Director{}, err
	}
	const query = `
        INSERT INTO directors (id, name, birth_date)
        VALUES ($1,$2,$3)
        RETURNING id, name, birth_date, created_at
    `
	d, err := scanDirector(r.pool.QueryRow(ctx, query, uuid.New(), params.Name, params.BirthDate))
	if err != nil {
		return domain.Director{}, translateError(err)
	}
	return d, nil
}

// GetByID fetches a director by identifier.
func (r *DirectorsRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Director, error) {
	const query = `SELECT id, name, birth_date, created_at FROM directors WHERE id = $1`
	d, err := scanDirector(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Director{}, translateError(err)
	}
	return d, nil
}

// List returns directors ordered by name.
func (r *DirectorsRepository) List(ctx context.Context, page Page) ([]domain.Director, error) {
	page = page.normalize()
	const query = `
        SELECT id, name, birth_date, created_at
        FROM directors
        ORDER BY name, id
        LIMIT $1 OFFSET $2
    `
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list directors: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Director, 0)
	for rows.Next() {
		d, err := scanDirector(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// Count returns the number of directors.
func (r *DirectorsRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM directors`))
}

func scanDirector(row pgx.Row) (domain.Director, error) {
	var d domain.Director
	err := row.Scan(&d.ID, &d.Name, &d.BirthDate, &d.CreatedAt)
	return d, err
}

// ActorsRepository provides persistence helpers for actors.
type ActorsRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new actor.
func (r *ActorsRepository) Create(ctx context.Context, params PersonCreateParams) (domain.Actor, error) {
	if err := validation.Struct(params); err != nil {
		return domain.Actor{}, err
	}
	const query = `
        INSERT INTO actors (id, name, birth_date)
        VALUES ($1,$2,$3)
        RETURNING id, name, birth_date, created_at
    `
	a, err := scanActor(r.pool.QueryRow(ctx, query, uuid.New(), params.Name, params.BirthDate))
	if err != nil {
		return domain.Actor{}, translateError(err)
	}
	return a, nil
}

// GetByID fetches an actor by identifier.
func (r *ActorsRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Actor, error) {
	const query = `SELECT id, name, birth_date, created_at FROM actors WHERE id = $1`
	a, err := scanActor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Actor{}, translateError(err)
	}
	return a, nil
}

// List returns actors ordered by name.
func (r *ActorsRepository) List(ctx context.Context, page Page) ([]domain.Actor, error) {
	page = page.normalize()
	const query = `
        SELECT id, name, birth_date, created_at
        FROM actors
        ORDER BY name, id
        LIMIT $1 OFFSET $2
    `
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Actor, 0)
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Count returns the number of actors.
func (r *ActorsRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM actors`))
}

func scanActor(row pgx.Row) (domain.Actor, error) {
	var a domain.Actor
	err := row.Scan(&a.ID, &a.Name, &a.BirthDate, &a.CreatedAt)
	return a, err
}
