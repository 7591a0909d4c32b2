package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

// ErrInvalidCredentials is returned when a username/password pair does not match.
var ErrInvalidCredentials = errors.New("repository: invalid credentials")

// UsersRepository stores accounts and verifies their passwords.
type UsersRepository struct {
	pool *pgxpool.Pool
}

// UserCreateParams captures the payload required to create an account. A
// profile is created alongside every user.
type UserCreateParams struct {
	Username    string `validate:"required,min=1,max=150"`
	Password    string `validate:"required,min=8,maxbytes=72"`
	IsSuperuser bool
	Bio         string `validate:"max=2000"`
}

const userColumns = `u.id, u.username, u.password_hash, u.is_superuser, u.date_joined`

// Create hashes the password, inserts the user and its profile, and returns
// the profile with the user attached.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.UserProfile, error) {
	if err := validation.Struct(params); err != nil {
		return domain.UserProfile{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	var profile domain.UserProfile
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		user, err := scanUser(tx.QueryRow(ctx, fmt.Sprintf(`
            WITH u AS (
                INSERT INTO users (id, username, password_hash, is_superuser)
                VALUES ($1,$2,$3,$4)
                RETURNING *
            )
            SELECT %s FROM u
        `, userColumns), uuid.New(), params.Username, string(hash), params.IsSuperuser))
		if err != nil {
			return translateError(err)
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO user_profiles (id, user_id, bio)
            VALUES ($1,$2,$3)
            RETURNING id, user_id, bio, created_at
        `, uuid.New(), user.ID, params.Bio).Scan(&profile.ID, &profile.UserID, &profile.Bio, &profile.CreatedAt)
		if err != nil {
			return translateError(err)
		}
		profile.User = &user
		return nil
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

// Authenticate returns the user when the password matches its stored hash.
func (r *UsersRepository) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetByUsername fetches a user by username.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.username = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &u.DateJoined)
	return u, err
}

// ProfilesRepository reads user profiles joined with their users.
type ProfilesRepository struct {
	pool *pgxpool.Pool
}

const profileSelect = `
    SELECT p.id, p.user_id, p.bio, p.created_at, ` + userColumns + `
    FROM user_profiles p
    JOIN users u ON u.id = p.user_id
`

// GetByID fetches a profile with its user.
func (r *ProfilesRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.UserProfile, error) {
	profile, err := scanProfile(r.pool.QueryRow(ctx, profileSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return domain.UserProfile{}, translateError(err)
	}
	return profile, nil
}

// GetByIDs fetches the profiles whose ids are given, in the order given.
// Unknown ids are skipped.
func (r *ProfilesRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.UserProfile, error) {
	if len(ids) == 0 {
		return []domain.UserProfile{}, nil
	}
	rows, err := r.pool.Query(ctx, profileSelect+` WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	found, err := collectProfiles(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.UserProfile, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]domain.UserProfile, 0, len(found))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// List returns profiles ordered by username.
func (r *ProfilesRepository) List(ctx context.Context, page Page) ([]domain.UserProfile, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, profileSelect+` ORDER BY u.username LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return collectProfiles(rows)
}

// Count returns the number of profiles.
func (r *ProfilesRepository) Count(ctx context.Context) (int64, error) {
	return countRows(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_profiles`))
}

func collectProfiles(rows pgx.Rows) ([]domain.UserProfile, error) {
	defer rows.Close()
	items := make([]domain.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func scanProfile(row pgx.Row) (domain.UserProfile, error) {
	var (
		p domain.UserProfile
		u domain.User
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Bio, &p.CreatedAt,
		&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &u.DateJoined)
	if err != nil {
		return domain.UserProfile{}, err
	}
	p.User = &u
	return p, nil
}
