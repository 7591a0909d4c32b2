package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

type personCreateRequest struct {
	Name      string  `json:"name"`
	BirthDate *string `json:"birthDate"`
}

type personResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	BirthDate *string `json:"birthDate,omitempty"`
}

type genreCreateRequest struct {
	Name string `json:"name"`
}

type genreResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func (s *Server) decodePerson(w http.ResponseWriter, r *http.Request) (repository.PersonCreateParams, bool) {
	var req personCreateRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return repository.PersonCreateParams{}, false
	}
	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation, "birthDate must follow YYYY-MM-DD format")
		return repository.PersonCreateParams{}, false
	}
	return repository.PersonCreateParams{Name: strings.TrimSpace(req.Name), BirthDate: birthDate}, true
}

func (s *Server) handleCreateDirector(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	params, ok := s.decodePerson(w, r)
	if !ok {
		return
	}
	director, err := s.repo.Directors.Create(r.Context(), params)
	if err != nil {
		s.render.Failure(w, "create director", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/directors/%s", director.ID))
	s.render.JSON(w, http.StatusCreated, toDirectorResponse(director))
}

func (s *Server) handleGetDirector(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	director, err := s.repo.Directors.GetByID(r.Context(), id)
	if err != nil {
		s.render.Failure(w, "fetch director", err)
		return
	}
	s.render.JSON(w, http.StatusOK, toDirectorResponse(director))
}

func (s *Server) handleListDirectors(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		s.render.Error(w, http.StatusBadRequest, render.CodeBadRequest, err.Error())
		return
	}
	items, err := s.repo.Directors.List(r.Context(), page)
	if err != nil {
		s.render.Failure(w, "list directors", err)
		return
	}
	resp := listResponse[personResponse]{Items: make([]personResponse, 0, len(items))}
	for _, d := range items {
		resp.Items = append(resp.Items, toDirectorResponse(d))
	}
	s.render.JSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateActor(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	params, ok := s.decodePerson(w, r)
	if !ok {
		return
	}
	actor, err := s.repo.Actors.Create(r.Context(), params)
	if err != nil {
		s.render.Failure(w, "create actor", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/actors/%s", actor.ID))
	s.render.JSON(w, http.StatusCreated, toActorResponse(actor))
}

func (s *Server) handleGetActor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	actor, err := s.repo.Actors.GetByID(r.Context(), id)
	if err != nil {
		s.render.Failure(w, "fetch actor", err)
		return
	}
	s.render.JSON(w, http.StatusOK, toActorResponse(actor))
}

func (s *Server) handleListActors(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		s.render.Error(w, http.StatusBadRequest, render.CodeBadRequest, err.Error())
		return
	}
	items, err := s.repo.Actors.List(r.Context(), page)
	if err != nil {
		s.render.Failure(w, "list actors", err)
		return
	}
	resp := listResponse[personResponse]{Items: make([]personResponse, 0, len(items))}
	for _, a := range items {
		resp.Items = append(resp.Items, toActorResponse(a))
	}
	s.render.JSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateGenre(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	var req genreCreateRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return
	}
	genre, err := s.repo.Genres.Create(r.Context(), repository.GenreCreateParams{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		s.render.Failure(w, "create genre", err)
		return
	}
	s.render.JSON(w, http.StatusCreated, toGenreResponse(genre))
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		s.render.Error(w, http.StatusBadRequest, render.CodeBadRequest, err.Error())
		return
	}
	items, err := s.repo.Genres.List(r.Context(), page)
	if err != nil {
		s.render.Failure(w, "list genres", err)
		return
	}
	s.render.JSON(w, http.StatusOK, listResponse[genreResponse]{Items: toGenreResponses(items)})
}

func toDirectorResponse(d domain.Director) personResponse {
	return personResponse{ID: d.ID.String(), Name: d.Name, BirthDate: formatDate(d.BirthDate)}
}

func toActorResponse(a domain.Actor) personResponse {
	return personResponse{ID: a.ID.String(), Name: a.Name, BirthDate: formatDate(a.BirthDate)}
}

func toGenreResponse(g domain.Genre) genreResponse {
	return genreResponse{ID: g.ID.String(), Name: g.Name}
}

func toGenreResponses(genres []domain.Genre) []genreResponse {
	out := make([]genreResponse, 0, len(genres))
	for _, g := range genres {
		out = append(out, toGenreResponse(g))
	}
	return out
}
