package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/metrics"
	"github.com/Clark-Hu/library-manager/internal/recommend"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

const dateLayout = "2006-01-02"

func registerCatalog(s *Site, repo *repository.Repository) {
	s.Register(&ModelAdmin{
		Model:       "director",
		VerboseName: "Directors",
		ListDisplay: []string{"name", "birth_date"},
		count:       repo.Directors.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Directors.List(ctx, page)
			return toRows(items, directorRow), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			d, err := repo.Directors.GetByID(ctx, id)
			return directorRow(d), err
		},
	})

	s.Register(&ModelAdmin{
		Model:       "actor",
		VerboseName: "Actors",
		ListDisplay: []string{"name", "birth_date"},
		count:       repo.Actors.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Actors.List(ctx, page)
			return toRows(items, actorRow), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			a, err := repo.Actors.GetByID(ctx, id)
			return actorRow(a), err
		},
	})

	s.Register(&ModelAdmin{
		Model:       "genre",
		VerboseName: "Genres",
		ListDisplay: []string{"name"},
		count:       repo.Genres.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Genres.List(ctx, page)
			return toRows(items, genreRow), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			g, err := repo.Genres.GetByID(ctx, id)
			return genreRow(g), err
		},
	})

	s.Register(&ModelAdmin{
		Model:       "movie",
		VerboseName: "Movies",
		ListDisplay: []string{"title", "release_date", "director_id", "avg_rating", "genres"},
		count:       repo.Movies.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Movies.ListPage(ctx, page)
			return toRows(items, movieRow), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			m, err := repo.Movies.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			row := movieRow(m)
			row["runtime"] = m.Runtime
			row["plot"] = m.Plot
			if m.Director != nil {
				row["director"] = m.Director.Name
			}
			cast, err := repo.Cast.ListByMovie(ctx, id)
			if err != nil {
				return nil, err
			}
			row["cast"] = toRows(cast, creditRow)
			return row, nil
		},
	})

	s.Register(&ModelAdmin{
		Model:       "movieactor",
		VerboseName: "Movie actors",
		ListDisplay: []string{"movie", "actor", "character_name", "is_lead"},
		count:       repo.Cast.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Cast.List(ctx, page)
			return toRows(items, func(c repository.CastRow) Row {
				row := creditRow(c.MovieActor)
				row["movie"] = c.MovieTitle
				row["actor"] = c.ActorName
				return row
			}), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			c, err := repo.Cast.GetByID(ctx, id)
			return creditRow(c), err
		},
	})

	s.Register(&ModelAdmin{
		Model:       "userprofile",
		VerboseName: "User profiles",
		ListDisplay: []string{"username", "is_superuser", "bio"},
		Actions: []Action{{
			Name:        "get_recommendations",
			Description: "Get movie recommendations",
			Run: func(ctx context.Context, ids []uuid.UUID) ([]string, error) {
				return recommendationMessages(ctx, s, repo.Profiles, ids)
			},
		}},
		count: repo.Profiles.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Profiles.List(ctx, page)
			return toRows(items, profileRow), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			p, err := repo.Profiles.GetByID(ctx, id)
			return profileRow(p), err
		},
	})

	s.Register(&ModelAdmin{
		Model:       "rating",
		VerboseName: "Ratings",
		ListDisplay: []string{"movie", "user", "value", "created_at"},
		count:       repo.Ratings.Count,
		list: func(ctx context.Context, page repository.Page) ([]Row, error) {
			items, err := repo.Ratings.List(ctx, page)
			return toRows(items, func(r repository.RatingRow) Row {
				row := ratingRow(r.Rating)
				row["movie"] = r.MovieTitle
				row["user"] = r.Username
				return row
			}), err
		},
		get: func(ctx context.Context, id uuid.UUID) (Row, error) {
			r, err := repo.Ratings.GetByID(ctx, id)
			return ratingRow(r), err
		},
	})
}

type profileLoader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.UserProfile, error)
}

// recommendationMessages produces one "Recommendations for <username>: ..."
// line per known profile, in selection order.
func recommendationMessages(ctx context.Context, s *Site, profiles profileLoader, ids []uuid.UUID) ([]string, error) {
	selected, err := profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(selected))
	for _, p := range selected {
		movies, err := s.recommender.GetRecommendations(ctx, p.UserID, RecommendationLimit)
		if err != nil {
			return nil, fmt.Errorf("recommend for %s: %w", p.User.Username, err)
		}
		messages = append(messages, fmt.Sprintf("Recommendations for %s: %s", p.User.Username, recommend.Titles(movies)))
	}

	metrics.AdminActionsTotal.WithLabelValues("get_recommendations").Inc()
	s.logger.Info("admin: recommendations generated",
		zap.Int("selected", len(ids)),
		zap.Int("profiles", len(selected)))
	return messages, nil
}

func toRows[T any](items []T, fn func(T) Row) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, fn(item))
	}
	return rows
}

func formatDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func directorRow(d domain.Director) Row {
	return Row{"id": d.ID, "name": d.Name, "birth_date": formatDate(d.BirthDate)}
}

func actorRow(a domain.Actor) Row {
	return Row{"id": a.ID, "name": a.Name, "birth_date": formatDate(a.BirthDate)}
}

func genreRow(g domain.Genre) Row {
	return Row{"id": g.ID, "name": g.Name}
}

func movieRow(m domain.Movie) Row {
	genres := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, g.Name)
	}
	return Row{
		"id":           m.ID,
		"title":        m.Title,
		"release_date": m.ReleaseDate.Format(dateLayout),
		"director_id":  m.DirectorID,
		"avg_rating":   m.AvgRating,
		"genres":       genres,
	}
}

func creditRow(c domain.MovieActor) Row {
	row := Row{
		"id":             c.ID,
		"movie_id":       c.MovieID,
		"actor_id":       c.ActorID,
		"character_name": c.CharacterName,
		"is_lead":        c.IsLead,
	}
	if c.Actor != nil {
		row["actor"] = c.Actor.Name
	}
	return row
}

func profileRow(p domain.UserProfile) Row {
	row := Row{"id": p.ID, "user_id": p.UserID, "bio": p.Bio}
	if p.User != nil {
		row["username"] = p.User.Username
		row["is_superuser"] = p.User.IsSuperuser
	}
	return row
}

func ratingRow(r domain.Rating) Row {
	return Row{
		"id":         r.ID,
		"movie_id":   r.MovieID,
		"user_id":    r.UserID,
		"value":      r.Value,
		"created_at": r.CreatedAt,
	}
}
