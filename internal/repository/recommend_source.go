package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/recommend"
)

// RecommendationSource loads rated and unrated movies for the recommender.
type RecommendationSource struct {
	pool *pgxpool.Pool
}

var _ recommend.Source = (*RecommendationSource)(nil)

// RatedMovies returns every movie the user rated, with genres and the value given.
func (s *RecommendationSource) RatedMovies(ctx context.Context, userID uuid.UUID) ([]recommend.RatedMovie, error) {
	query := fmt.Sprintf(`
        SELECT %s, r.value
        FROM ratings r
        JOIN movies m ON m.id = r.movie_id
        WHERE r.user_id = $1
        ORDER BY r.created_at, m.id
    `, movieColumns)
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load rated movies: %w", err)
	}
	defer rows.Close()

	items := make([]recommend.RatedMovie, 0)
	for rows.Next() {
		var (
			m     domain.Movie
			value int
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.ReleaseDate, &m.ReleaseYear, &m.DirectorID,
			&m.Runtime, &m.Plot, &m.AvgRating, &m.CreatedAt, &m.UpdatedAt, &value); err != nil {
			return nil, err
		}
		items = append(items, recommend.RatedMovie{Movie: m, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	movies := make([]*domain.Movie, len(items))
	for i := range items {
		movies[i] = &items[i].Movie
	}
	return items, s.attach(ctx, movies)
}

// UnratedMovies returns every movie the user has not rated, with genres and
// rating counts.
func (s *RecommendationSource) UnratedMovies(ctx context.Context, userID uuid.UUID) ([]recommend.Candidate, error) {
	query := fmt.Sprintf(`
        SELECT %s, (SELECT COUNT(*) FROM ratings x WHERE x.movie_id = m.id)::int8
        FROM movies m
        WHERE NOT EXISTS (
            SELECT 1 FROM ratings r WHERE r.movie_id = m.id AND r.user_id = $1
        )
        ORDER BY m.created_at, m.id
    `, movieColumns)
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load unrated movies: %w", err)
	}
	defer rows.Close()

	items := make([]recommend.Candidate, 0)
	for rows.Next() {
		var c recommend.Candidate
		m := &c.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.ReleaseDate, &m.ReleaseYear, &m.DirectorID,
			&m.Runtime, &m.Plot, &m.AvgRating, &m.CreatedAt, &m.UpdatedAt, &c.RatingCount); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	movies := make([]*domain.Movie, len(items))
	for i := range items {
		movies[i] = &items[i].Movie
	}
	return items, s.attach(ctx, movies)
}

func (s *RecommendationSource) attach(ctx context.Context, movies []*domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	byMovie, err := genresForMovies(ctx, s.pool, ids)
	if err != nil {
		return err
	}
	for _, m := range movies {
		m.Genres = byMovie[m.ID]
		if m.Genres == nil {
			m.Genres = []domain.Genre{}
		}
	}
	return nil
}
