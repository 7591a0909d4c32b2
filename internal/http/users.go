package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

type userCreateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	IsSuperuser bool   `json:"isSuperuser"`
	Bio         string `json:"bio"`
}

type userResponse struct {
	ProfileID   string    `json:"profileId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	IsSuperuser bool      `json:"isSuperuser"`
	Bio         string    `json:"bio"`
	DateJoined  time.Time `json:"dateJoined"`
}

type recommendationsResponse struct {
	Username string          `json:"username"`
	Items    []movieResponse `json:"items"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}

	var req userCreateRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return
	}

	profile, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Username:    strings.TrimSpace(req.Username),
		Password:    req.Password,
		IsSuperuser: req.IsSuperuser,
		Bio:         req.Bio,
	})
	if err != nil {
		s.render.Failure(w, "create user", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/users/%s", profile.User.Username))
	s.render.JSON(w, http.StatusCreated, toUserResponse(profile))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if val := strings.TrimSpace(r.URL.Query().Get("limit")); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			s.render.Error(w, http.StatusBadRequest, render.CodeBadRequest, "invalid limit value")
			return
		}
		limit = parsed
	}

	user, err := s.repo.Users.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.render.Failure(w, "fetch user", err)
		return
	}

	movies, err := s.recommender.GetRecommendations(r.Context(), user.ID, limit)
	if err != nil {
		s.render.Failure(w, "build recommendations", err)
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		items = append(items, toMovieResponse(m))
	}
	s.render.JSON(w, http.StatusOK, recommendationsResponse{Username: user.Username, Items: items})
}

func toUserResponse(p domain.UserProfile) userResponse {
	resp := userResponse{
		ProfileID: p.ID.String(),
		UserID:    p.UserID.String(),
		Bio:       p.Bio,
	}
	if p.User != nil {
		resp.Username = p.User.Username
		resp.IsSuperuser = p.User.IsSuperuser
		resp.DateJoined = p.User.DateJoined
	}
	return resp
}
