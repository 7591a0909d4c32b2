package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds on the integer scale.
const (
	MinRating = 1
	MaxRating = 10
)

// Rating represents a single user's rating for a movie.
type Rating struct {
	ID        uuid.UUID
	MovieID   uuid.UUID
	UserID    uuid.UUID
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingAggregate provides average and count for a movie's ratings.
type RatingAggregate struct {
	Average float64
	Count   int64
}
