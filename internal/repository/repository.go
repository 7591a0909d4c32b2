package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-manager/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("repository: conflict")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Directors       *DirectorsRepository
	Actors          *ActorsRepository
	Genres          *GenresRepository
	Movies          *MoviesRepository
	Cast            *CastRepository
	Ratings         *RatingsRepository
	Users           *UsersRepository
	Profiles        *ProfilesRepository
	Recommendations *RecommendationSource
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Directors:       &DirectorsRepository{pool: pool},
		Actors:          &ActorsRepository{pool: pool},
		Genres:          &GenresRepository{pool: pool},
		Movies:          &MoviesRepository{pool: pool},
		Cast:            &CastRepository{pool: pool},
		Ratings:         &RatingsRepository{pool: pool},
		Users:           &UsersRepository{pool: pool},
		Profiles:        &ProfilesRepository{pool: pool},
		Recommendations: &RecommendationSource{pool: pool},
	}
}

// Page selects a window of rows for offset-paginated listings.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	} else if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func countRows(row pgx.Row) (int64, error) {
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
