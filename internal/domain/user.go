package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can rate movies and, as a superuser, use the admin.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	IsSuperuser  bool
	DateJoined   time.Time
}

// UserProfile wraps a user for the admin recommendation action.
type UserProfile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	User      *User
	Bio       string
	CreatedAt time.Time
}
