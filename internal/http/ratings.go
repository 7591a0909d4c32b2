package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/metrics"
	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

// userHeader names the account submitting a rating.
const userHeader = "X-User"

type ratingRequest struct {
	Value int `json:"value"`
}

type ratingResponse struct {
	ID        string  `json:"id"`
	MovieID   string  `json:"movieId"`
	Username  string  `json:"username"`
	Value     int     `json:"value"`
	AvgRating float64 `json:"avgRating"`
}

type ratingDeletedResponse struct {
	MovieID   string  `json:"movieId"`
	AvgRating float64 `json:"avgRating"`
}

type userRatingResponse struct {
	ID      string `json:"id"`
	MovieID string `json:"movieId"`
	Value   int    `json:"value"`
}

type ratingAggregateResponse struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// rater resolves the X-User header to an account, writing 401 when it is
// missing or unknown.
func (s *Server) rater(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	username := strings.TrimSpace(r.Header.Get(userHeader))
	if username == "" {
		s.render.Error(w, http.StatusUnauthorized, render.CodeUnauthorized, "Missing or invalid authentication information")
		return domain.User{}, false
	}
	user, err := s.repo.Users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.render.Error(w, http.StatusUnauthorized, render.CodeUnauthorized, "Missing or invalid authentication information")
			return domain.User{}, false
		}
		s.render.Failure(w, "process rating", err)
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	s.writeRating(w, r, "created", http.StatusCreated, s.repo.Ratings.Create)
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	s.writeRating(w, r, "updated", http.StatusOK, s.repo.Ratings.Update)
}

type ratingWriter func(context.Context, repository.RatingCreateParams) (repository.RatingResult, error)

func (s *Server) writeRating(w http.ResponseWriter, r *http.Request, outcome string, status int, write ratingWriter) {
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	user, ok := s.rater(w, r)
	if !ok {
		return
	}

	var req ratingRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return
	}

	res, err := write(r.Context(), repository.RatingCreateParams{
		MovieID: movieID,
		UserID:  user.ID,
		Value:   req.Value,
	})
	if err != nil {
		metrics.RecordRating(ratingOutcome(err))
		s.render.Failure(w, "process rating", err)
		return
	}
	metrics.RecordRating(outcome)

	s.logger.Debug("rating "+outcome,
		zap.String("movie_id", movieID.String()),
		zap.String("username", user.Username),
		zap.Int("value", res.Rating.Value),
		zap.Float64("avg_rating", res.MovieAverage))
	s.render.JSON(w, status, toRatingResponse(res.Rating, user, res.MovieAverage))
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	user, ok := s.rater(w, r)
	if !ok {
		return
	}

	avg, err := s.repo.Ratings.Delete(r.Context(), movieID, user.ID)
	if err != nil {
		metrics.RecordRating(ratingOutcome(err))
		s.render.Failure(w, "delete rating", err)
		return
	}
	metrics.RecordRating("deleted")
	s.render.JSON(w, http.StatusOK, ratingDeletedResponse{MovieID: movieID.String(), AvgRating: avg})
}

func (s *Server) handleGetOwnRating(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	user, ok := s.rater(w, r)
	if !ok {
		return
	}

	rating, err := s.repo.Ratings.Get(r.Context(), movieID, user.ID)
	if err != nil {
		s.render.Failure(w, "fetch rating", err)
		return
	}
	movie, err := s.repo.Movies.GetByID(r.Context(), movieID)
	if err != nil {
		s.render.Failure(w, "fetch rating", err)
		return
	}
	s.render.JSON(w, http.StatusOK, toRatingResponse(rating, user, movie.AvgRating))
}

func (s *Server) handleListUserRatings(w http.ResponseWriter, r *http.Request) {
	user, err := s.repo.Users.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.render.Failure(w, "fetch user", err)
		return
	}
	ratings, err := s.repo.Ratings.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.render.Failure(w, "list ratings", err)
		return
	}

	items := make([]userRatingResponse, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, userRatingResponse{
			ID:      rating.ID.String(),
			MovieID: rating.MovieID.String(),
			Value:   rating.Value,
		})
	}
	s.render.JSON(w, http.StatusOK, listResponse[userRatingResponse]{Items: items})
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.repo.Movies.GetByID(r.Context(), movieID); err != nil {
		s.render.Failure(w, "fetch rating", err)
		return
	}

	agg, err := s.repo.Ratings.Aggregate(r.Context(), movieID)
	if err != nil {
		s.render.Failure(w, "fetch rating", err)
		return
	}
	s.render.JSON(w, http.StatusOK, ratingAggregateResponse{Average: agg.Average, Count: agg.Count})
}

func ratingOutcome(err error) string {
	switch {
	case validation.IsValidation(err):
		return "invalid"
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func toRatingResponse(rating domain.Rating, user domain.User, avg float64) ratingResponse {
	return ratingResponse{
		ID:        rating.ID.String(),
		MovieID:   rating.MovieID.String(),
		Username:  user.Username,
		Value:     rating.Value,
		AvgRating: avg,
	}
}
