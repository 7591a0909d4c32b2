package domain

import (
	"time"

	"github.com/google/uuid"
)

// Director is a person credited with directing zero or more movies.
type Director struct {
	ID        uuid.UUID
	Name      string
	BirthDate *time.Time
	CreatedAt time.Time
}

// Actor is a person who can appear in a movie's cast.
type Actor struct {
	ID        uuid.UUID
	Name      string
	BirthDate *time.Time
	CreatedAt time.Time
}

// Genre is a catalog label shared by many movies.
type Genre struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Movie is the canonical catalog entry. AvgRating is derived from the movie's
// ratings and is never written directly by callers.
type Movie struct {
	ID          uuid.UUID
	Title       string
	ReleaseDate time.Time
	ReleaseYear int
	DirectorID  *uuid.UUID
	Director    *Director
	Runtime     *int
	Plot        string
	Genres      []Genre
	AvgRating   float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasGenre reports whether the movie carries a genre with the given id.
func (m Movie) HasGenre(id uuid.UUID) bool {
	for _, g := range m.Genres {
		if g.ID == id {
			return true
		}
	}
	return false
}

// MovieActor is one casting credit linking a movie and an actor.
type MovieActor struct {
	ID            uuid.UUID
	MovieID       uuid.UUID
	ActorID       uuid.UUID
	Actor         *Actor
	CharacterName string
	IsLead        bool
	CreatedAt     time.Time
}
