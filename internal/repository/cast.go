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

// CastRepository manages MovieActor credits.
type CastRepository struct {
	pool *pgxpool.Pool
}

// CastCreateParams describes one casting credit.
type CastCreateParams struct {
	MovieID       uuid.UUID `validate:"required"`
	ActorID       uuid.UUID `validate:"required"`
	CharacterName string    `validate:"max=255"`
	IsLead        bool
}

// CastRow is a credit joined with the labels the admin shows.
type CastRow struct {
	domain.MovieActor
	MovieTitle string
	ActorName  string
}

const castColumns = `ma.id, ma.movie_id, ma.actor_id, ma.character_name, ma.is_lead, ma.created_at`

// Create records a credit. The same actor may play several characters.
func (r *CastRepository) Create(ctx context.Context, params CastCreateParams) (domain.MovieActor, error) {
	if err := validation.Struct(params); err != nil {
		return domain.MovieActor{}, err
	}
	query := fmt.Sprintf(`
        WITH ma AS (
            INSERT INTO movie_actors (id, movie_id, actor_id, character_name, is_lead)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING *
        )
        SELECT %s FROM ma
    `, castColumns)
	credit, err := scanCredit(r.pool.QueryRow(ctx, query, uuid.New(), params.MovieID, params.ActorID, params.CharacterName, params.IsLead))
	if err != nil {
		return domain.MovieActor{}, translateError(err)
	}
	return credit, nil
}

// GetByID fetches a credit with its actor.
func (r *CastRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.MovieActor, error) {
	query := fmt.Sprintf(`
        SELECT %s, a.id, a.name, a.birth_date, a.created_at
        FROM movie_actors ma
        JOIN actors a ON a.id = ma.actor_id
        WHERE ma.id = $1
    `, castColumns)
	credit, err := scanCreditWithActor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.MovieActor{}, translateError(err)
	}
	return credit, nil
}

// ListByMovie returns a movie's credits, leads first.
func (r *CastRepository) ListByMovie(ctx context.Context, movieID uuid.UUID) ([]domain.MovieActor, error) {
	query := fmt.Sprintf(`
        SELECT %s, a.id, a.name, a.birth_date, a.created_at
        FROM movie_actors ma
        JOIN actors a ON a.id = ma.actor_id
        WHERE ma.movie_id = $1
        ORDER BY ma.is_lead DESC, ma.created_at, ma.id
    `, castColumns)
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("list cast: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MovieActor, 0)
	for rows.Next() {
		credit, err := scanCreditWithActor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, credit)
	}
	return items, rows.Err()
}

// List returns credits with movie titles and actor names.
func (r *CastRepository) List(ctx context.Context, page Page) ([]CastRow, error) {
	page = page.normalize()
	query := fmt.Sprintf(`
        SELECT %s, m.title, a.name
        FROM movie_actors ma
        JOIN movies m ON m.id = ma.movie_id
        JOIN actors a ON a.id = ma.actor_id
        ORDER BY m.title, ma.is_lead DESC, a.name, ma.id
        LIMIT $1 OFFSET $2
    `, castColumns)
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	items := make([]CastRow, 0)
	for rows.Next() {
		var row CastRow
		if err := rows.Scan(&row.ID, &row.MovieID, &row.ActorID, &row.CharacterName, &row.IsLead, &row.CreatedAt, &row.MovieTitle, &row.ActorName); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

// Count returns the number of credits.
func (r *CastRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movie_actors`))
}

func scanCredit(row pgx.Row) (domain.MovieActor, error) {
	var c domain.MovieActor
	err := row.Scan(&c.ID, &c.MovieID, &c.ActorID, &c.CharacterName, &c.IsLead, &c.CreatedAt)
	return c, err
}

func scanCreditWithActor(row pgx.Row) (domain.MovieActor, error) {
	var (
		c domain.MovieActor
		a domain.Actor
	)
	err := row.Scan(&c.ID, &c.MovieID, &c.ActorID, &c.CharacterName, &c.IsLead, &c.CreatedAt,
		&a.ID, &a.Name, &a.BirthDate, &a.CreatedAt)
	if err != nil {
		return domain.MovieActor{}, err
	}
	c.Actor = &a
	return c, nil
}
