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

// RatingsRepository provides helpers for movie ratings. Every write
// recomputes the owning movie's avg_rating inside the same transaction.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingCreateParams captures the payload required to record a rating.
type RatingCreateParams struct {
	MovieID uuid.UUID `validate:"required"`
	UserID  uuid.UUID `validate:"required"`
	Value   int       `validate:"min=1,max=10"`
}

// RatingRow is a rating joined with the labels the admin shows.
type RatingRow struct {
	domain.Rating
	MovieTitle string
	Username   string
}

// RatingResult is a written rating together with the movie average the
// write produced.
type RatingResult struct {
	Rating       domain.Rating
	MovieAverage float64
}

const ratingColumns = `id, movie_id, user_id, value, created_at, updated_at`

// recomputeAverageSQL sets avg_rating to the rounded mean of the movie's
// current ratings, or 0 when none remain, and returns it.
const recomputeAverageSQL = `
    UPDATE movies
    SET avg_rating = COALESCE(
            (SELECT ROUND(AVG(value)::numeric, 2) FROM ratings WHERE movie_id = $1),
            0),
        updated_at = now()
    WHERE id = $1
    RETURNING avg_rating::float8
`

// Create inserts a rating and recomputes the movie average. A second rating
// by the same user for the same movie returns ErrConflict.
func (r *RatingsRepository) Create(ctx context.Context, params RatingCreateParams) (RatingResult, error) {
	if err := validation.Struct(params); err != nil {
		return RatingResult{}, err
	}

	var res RatingResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMovie(ctx, tx, params.MovieID); err != nil {
			return err
		}
		query := fmt.Sprintf(`
            INSERT INTO ratings (id, movie_id, user_id, value)
            VALUES ($1,$2,$3,$4)
            RETURNING %s
        `, ratingColumns)
		var err error
		res.Rating, err = scanRating(tx.QueryRow(ctx, query, uuid.New(), params.MovieID, params.UserID, params.Value))
		if err != nil {
			return translateError(err)
		}
		res.MovieAverage, err = recomputeAverage(ctx, tx, params.MovieID)
		return err
	})
	if err != nil {
		return RatingResult{}, err
	}
	return res, nil
}

// Update changes the value of an existing rating and recomputes the average.
func (r *RatingsRepository) Update(ctx context.Context, params RatingCreateParams) (RatingResult, error) {
	if err := validation.Struct(params); err != nil {
		return RatingResult{}, err
	}

	var res RatingResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMovie(ctx, tx, params.MovieID); err != nil {
			return err
		}
		query := fmt.Sprintf(`
            UPDATE ratings
            SET value = $3, updated_at = now()
            WHERE movie_id = $1 AND user_id = $2
            RETURNING %s
        `, ratingColumns)
		var err error
		res.Rating, err = scanRating(tx.QueryRow(ctx, query, params.MovieID, params.UserID, params.Value))
		if err != nil {
			return translateError(err)
		}
		res.MovieAverage, err = recomputeAverage(ctx, tx, params.MovieID)
		return err
	})
	if err != nil {
		return RatingResult{}, err
	}
	return res, nil
}

// Delete removes a user's rating for a movie and returns the recomputed
// average.
func (r *RatingsRepository) Delete(ctx context.Context, movieID, userID uuid.UUID) (float64, error) {
	var avg float64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMovie(ctx, tx, movieID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM ratings WHERE movie_id = $1 AND user_id = $2`, movieID, userID)
		if err != nil {
			return fmt.Errorf("delete rating: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		avg, err = recomputeAverage(ctx, tx, movieID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return avg, nil
}

// Aggregate returns the rating average and count for a movie.
func (r *RatingsRepository) Aggregate(ctx context.Context, movieID uuid.UUID) (domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(value)::numeric, 2), 0)::float8 AS average,
               COUNT(*)::int8 AS count
        FROM ratings
        WHERE movie_id = $1
    `

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, movieID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

// Get retrieves a rating for a specific user/movie combination.
func (r *RatingsRepository) Get(ctx context.Context, movieID, userID uuid.UUID) (domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE movie_id = $1 AND user_id = $2`, ratingColumns)
	rating, err := scanRating(r.pool.QueryRow(ctx, query, movieID, userID))
	if err != nil {
		return domain.Rating{}, translateError(err)
	}
	return rating, nil
}

// GetByID retrieves a rating by identifier.
func (r *RatingsRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE id = $1`, ratingColumns)
	rating, err := scanRating(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Rating{}, translateError(err)
	}
	return rating, nil
}

// ListByUser returns every rating a user has submitted, newest first.
func (r *RatingsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE user_id = $1 ORDER BY created_at DESC, id`, ratingColumns)
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user ratings: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rating)
	}
	return items, rows.Err()
}

// List returns ratings with movie titles and usernames, newest first.
func (r *RatingsRepository) List(ctx context.Context, page Page) ([]RatingRow, error) {
	page = page.normalize()
	const query = `
        SELECT r.id, r.movie_id, r.user_id, r.value, r.created_at, r.updated_at, m.title, u.username
        FROM ratings r
        JOIN movies m ON m.id = r.movie_id
        JOIN users u ON u.id = r.user_id
        ORDER BY r.created_at DESC, r.id
        LIMIT $1 OFFSET $2
    `
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	items := make([]RatingRow, 0)
	for rows.Next() {
		var row RatingRow
		if err := rows.Scan(&row.ID, &row.MovieID, &row.UserID, &row.Value, &row.CreatedAt, &row.UpdatedAt, &row.MovieTitle, &row.Username); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

// Count returns the number of ratings.
func (r *RatingsRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`))
}

func recomputeAverage(ctx context.Context, tx pgx.Tx, movieID uuid.UUID) (float64, error) {
	var avg float64
	if err := tx.QueryRow(ctx, recomputeAverageSQL, movieID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("recompute average rating: %w", err)
	}
	return avg, nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(
		&rating.ID,
		&rating.MovieID,
		&rating.UserID,
		&rating.Value,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	return rating, err
}
