package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    m.id,
    m.title,
    m.release_date,
    m.release_year,
    m.director_id,
    m.runtime,
    m.plot,
    m.avg_rating::float8,
    m.created_at,
    m.updated_at
`

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title       string    `validate:"required,max=255"`
	ReleaseDate time.Time `validate:"required"`
	DirectorID  *uuid.UUID
	Runtime     *int `validate:"omitempty,gt=0"`
	Plot        string
	GenreIDs    []uuid.UUID
}

// MovieListFilters encapsulates search and pagination options.
type MovieListFilters struct {
	Query      *string
	Year       *int
	Genre      *string
	DirectorID *uuid.UUID
	Limit      int
	Cursor     *MovieCursor
}

// MovieCursor allows stable pagination by created_at/id.
type MovieCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        uuid.UUID `json:"id"`
}

// MovieListResult returns the paginated payload.
type MovieListResult struct {
	Items      []domain.Movie
	NextCursor *string
}

// Create inserts a new movie row together with its genre links.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	if err := validation.Struct(params); err != nil {
		return domain.Movie{}, err
	}

	var movie domain.Movie
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
            WITH m AS (
                INSERT INTO movies (id, title, release_date, director_id, runtime, plot)
                VALUES ($1,$2,$3,$4,$5,$6)
                RETURNING *
            )
            SELECT %s FROM m
        `, movieColumns)

		row := tx.QueryRow(ctx, query, uuid.New(), params.Title, params.ReleaseDate, params.DirectorID, params.Runtime, params.Plot)
		var err error
		movie, err = scanMovie(row)
		if err != nil {
			return translateError(err)
		}
		if err := addGenres(ctx, tx, movie.ID, params.GenreIDs); err != nil {
			return err
		}
		movie.Genres, err = genresForMovie(ctx, tx, movie.ID)
		return err
	})
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// GetByID fetches a movie with its director and genres.
func (r *MoviesRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Movie{}, translateError(err)
	}

	if movie.DirectorID != nil {
		director, err := (&DirectorsRepository{pool: r.pool}).GetByID(ctx, *movie.DirectorID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return domain.Movie{}, err
		}
		if err == nil {
			movie.Director = &director
		}
	}

	movie.Genres, err = genresForMovie(ctx, r.pool, movie.ID)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// AddGenres links genres to a movie. Existing links are left untouched.
func (r *MoviesRepository) AddGenres(ctx context.Context, movieID uuid.UUID, genreIDs ...uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMovie(ctx, tx, movieID); err != nil {
			return err
		}
		return addGenres(ctx, tx, movieID, genreIDs)
	})
}

// RemoveGenre unlinks a genre from a movie.
func (r *MoviesRepository) RemoveGenre(ctx context.Context, movieID, genreID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movie_genres WHERE movie_id = $1 AND genre_id = $2`, movieID, genreID)
	if err != nil {
		return fmt.Errorf("remove genre: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Genres returns the genres linked to a movie ordered by name.
func (r *MoviesRepository) Genres(ctx context.Context, movieID uuid.UUID) ([]domain.Genre, error) {
	return genresForMovie(ctx, r.pool, movieID)
}

// CountGenres returns how many genres a movie carries.
func (r *MoviesRepository) CountGenres(ctx context.Context, movieID uuid.UUID) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movie_genres WHERE movie_id = $1`, movieID))
}

// Actors returns the distinct actors credited on a movie, leads first.
func (r *MoviesRepository) Actors(ctx context.Context, movieID uuid.UUID) ([]domain.Actor, error) {
	const query = `
        SELECT a.id, a.name, a.birth_date, a.created_at
        FROM actors a
        JOIN (
            SELECT actor_id, bool_or(is_lead) AS lead, min(created_at) AS first_credit
            FROM movie_actors
            WHERE movie_id = $1
            GROUP BY actor_id
        ) c ON c.actor_id = a.id
        ORDER BY c.lead DESC, c.first_credit, a.name
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("list movie actors: %w", err)
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

// List returns movies that match the provided filters.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MovieListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	} else if filters.Limit > 100 {
		filters.Limit = 100
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + strings.TrimSpace(*filters.Query) + "%"
		p1 := arg(q)
		p2 := arg(q)
		where = append(where, fmt.Sprintf("(m.title ILIKE %s OR m.plot ILIKE %s)", p1, p2))
	}
	if filters.Year != nil {
		where = append(where, fmt.Sprintf("m.release_year = %s", arg(*filters.Year)))
	}
	if filters.Genre != nil && strings.TrimSpace(*filters.Genre) != "" {
		where = append(where, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
            WHERE mg.movie_id = m.id AND g.name ILIKE %s)`, arg(strings.TrimSpace(*filters.Genre))))
	}
	if filters.DirectorID != nil {
		where = append(where, fmt.Sprintf("m.director_id = %s", arg(*filters.DirectorID)))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(m.created_at, m.id) < (%s, %s)", cursorCreated, cursorID))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(movieColumns)
	queryBuilder.WriteString(" FROM movies m")

	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY m.created_at DESC, m.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return MovieListResult{}, err
	}
	items, err := collectMovies(rows)
	if err != nil {
		return MovieListResult{}, err
	}
	if err := r.attachGenres(ctx, items); err != nil {
		return MovieListResult{}, err
	}

	var nextCursor *string
	if len(items) == filters.Limit {
		last := items[len(items)-1]
		token, err := encodeCursor(MovieCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return MovieListResult{}, err
		}
		nextCursor = &token
	}

	return MovieListResult{Items: items, NextCursor: nextCursor}, nil
}

// ListPage returns movies ordered by title for offset-paginated views.
func (r *MoviesRepository) ListPage(ctx context.Context, page Page) ([]domain.Movie, error) {
	page = page.normalize()
	query := fmt.Sprintf(`SELECT %s FROM movies m ORDER BY m.title, m.id LIMIT $1 OFFSET $2`, movieColumns)
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	items, err := collectMovies(rows)
	if err != nil {
		return nil, err
	}
	return items, r.attachGenres(ctx, items)
}

// Count returns the number of movies.
func (r *MoviesRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`))
}

// attachGenres loads genres for every movie in one round trip.
func (r *MoviesRepository) attachGenres(ctx context.Context, movies []domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	byMovie, err := genresForMovies(ctx, r.pool, ids)
	if err != nil {
		return err
	}
	for i := range movies {
		movies[i].Genres = byMovie[movies[i].ID]
		if movies[i].Genres == nil {
			movies[i].Genres = []domain.Genre{}
		}
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// lockMovie takes a row lock on the movie for the rest of the transaction.
func lockMovie(ctx context.Context, tx pgx.Tx, movieID uuid.UUID) error {
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM movies WHERE id = $1 FOR UPDATE`, movieID).Scan(&id); err != nil {
		return translateError(err)
	}
	return nil
}

func addGenres(ctx context.Context, tx pgx.Tx, movieID uuid.UUID, genreIDs []uuid.UUID) error {
	for _, genreID := range genreIDs {
		_, err := tx.Exec(ctx, `
            INSERT INTO movie_genres (movie_id, genre_id)
            VALUES ($1,$2)
            ON CONFLICT DO NOTHING
        `, movieID, genreID)
		if err != nil {
			return translateError(err)
		}
	}
	return nil
}

func genresForMovie(ctx context.Context, q querier, movieID uuid.UUID) ([]domain.Genre, error) {
	rows, err := q.Query(ctx, `
        SELECT g.id, g.name, g.created_at
        FROM genres g
        JOIN movie_genres mg ON mg.genre_id = g.id
        WHERE mg.movie_id = $1
        ORDER BY g.name
    `, movieID)
	if err != nil {
		return nil, fmt.Errorf("load movie genres: %w", err)
	}
	return collectGenres(rows)
}

func genresForMovies(ctx context.Context, q querier, movieIDs []uuid.UUID) (map[uuid.UUID][]domain.Genre, error) {
	rows, err := q.Query(ctx, `
        SELECT mg.movie_id, g.id, g.name, g.created_at
        FROM movie_genres mg
        JOIN genres g ON g.id = mg.genre_id
        WHERE mg.movie_id = ANY($1)
        ORDER BY g.name
    `, movieIDs)
	if err != nil {
		return nil, fmt.Errorf("load genres: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Genre, len(movieIDs))
	for rows.Next() {
		var (
			movieID uuid.UUID
			g       domain.Genre
		)
		if err := rows.Scan(&movieID, &g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out[movieID] = append(out[movieID], g)
	}
	return out, rows.Err()
}

func collectMovies(rows pgx.Rows) ([]domain.Movie, error) {
	defer rows.Close()
	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.ReleaseDate,
		&movie.ReleaseYear,
		&movie.DirectorID,
		&movie.Runtime,
		&movie.Plot,
		&movie.AvgRating,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func encodeCursor(c MovieCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a MovieCursor.
func DecodeCursor(token string) (*MovieCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor MovieCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
