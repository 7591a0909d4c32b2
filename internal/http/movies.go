package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

type movieCreateRequest struct {
	Title       string   `json:"title"`
	ReleaseDate string   `json:"releaseDate"`
	DirectorID  *string  `json:"directorId"`
	Runtime     *int     `json:"runtime"`
	Plot        string   `json:"plot"`
	GenreIDs    []string `json:"genreIds"`
}

type movieGenresRequest struct {
	GenreIDs []string `json:"genreIds"`
}

type castCreateRequest struct {
	ActorID       string `json:"actorId"`
	CharacterName string `json:"characterName"`
	IsLead        bool   `json:"isLead"`
}

type movieListResponse struct {
	Items      []movieResponse `json:"items"`
	NextCursor *string         `json:"nextCursor,omitempty"`
}

type movieResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	ReleaseDate string          `json:"releaseDate"`
	ReleaseYear int             `json:"releaseYear"`
	DirectorID  *string         `json:"directorId,omitempty"`
	Director    *personResponse `json:"director,omitempty"`
	Runtime     *int            `json:"runtime,omitempty"`
	Plot        string          `json:"plot"`
	Genres      []genreResponse `json:"genres"`
	AvgRating   float64         `json:"avgRating"`
}

type creditResponse struct {
	ID            string          `json:"id"`
	MovieID       string          `json:"movieId"`
	ActorID       string          `json:"actorId"`
	Actor         *personResponse `json:"actor,omitempty"`
	CharacterName string          `json:"characterName"`
	IsLead        bool            `json:"isLead"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.render.Error(w, http.StatusBadRequest, render.CodeBadRequest, err.Error())
		return
	}

	result, err := s.repo.Movies.List(r.Context(), filters)
	if err != nil {
		s.render.Failure(w, "list movies", err)
		return
	}

	items := make([]movieResponse, 0, len(result.Items))
	for _, movie := range result.Items {
		items = append(items, toMovieResponse(movie))
	}
	s.render.JSON(w, http.StatusOK, movieListResponse{Items: items, NextCursor: result.NextCursor})
}

func buildMovieFilters(query url.Values) (repository.MovieListFilters, error) {
	var filters repository.MovieListFilters

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid year value")
		}
		filters.Year = &year
	}
	if val := strings.TrimSpace(query.Get("genre")); val != "" {
		filters.Genre = &val
	}
	if val := strings.TrimSpace(query.Get("director")); val != "" {
		id, err := uuid.Parse(val)
		if err != nil {
			return filters, fmt.Errorf("invalid director value")
		}
		filters.DirectorID = &id
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}

	var req movieCreateRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return
	}

	releaseDate, err := time.Parse(dateLayout, strings.TrimSpace(req.ReleaseDate))
	if err != nil {
		s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation, "releaseDate must follow YYYY-MM-DD format")
		return
	}
	params := repository.MovieCreateParams{
		Title:       strings.TrimSpace(req.Title),
		ReleaseDate: releaseDate,
		Runtime:     req.Runtime,
		Plot:        strings.TrimSpace(req.Plot),
	}
	if req.DirectorID != nil && strings.TrimSpace(*req.DirectorID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*req.DirectorID))
		if err != nil {
			s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation, "directorId must be a valid id")
			return
		}
		params.DirectorID = &id
	}
	if params.GenreIDs, err = parseUUIDs(req.GenreIDs); err != nil {
		s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation, err.Error())
		return
	}

	movie, err := s.repo.Movies.Create(r.Context(), params)
	if err != nil {
		s.render.Failure(w, "create movie", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%s", movie.ID))
	s.render.JSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	movie, err := s.repo.Movies.GetByID(r.Context(), id)
	if err != nil {
		s.render.Failure(w, "fetch movie", err)
		return
	}
	s.render.JSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleAddMovieGenres(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}

	var req movieGenresRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return
	}
	genreIDs, err := parseUUIDs(req.GenreIDs)
	if err != nil || len(genreIDs) == 0 {
		s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation, "genreIds must list at least one valid id")
		return
	}

	if err := s.repo.Movies.AddGenres(r.Context(), id, genreIDs...); err != nil {
		s.render.Failure(w, "add genres", err)
		return
	}
	genres, err := s.repo.Movies.Genres(r.Context(), id)
	if err != nil {
		s.render.Failure(w, "list genres", err)
		return
	}
	s.render.JSON(w, http.StatusOK, listResponse[genreResponse]{Items: toGenreResponses(genres)})
}

func (s *Server) handleRemoveMovieGenre(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	genreID, ok := s.idParam(w, r, "genreId")
	if !ok {
		return
	}

	if err := s.repo.Movies.RemoveGenre(r.Context(), movieID, genreID); err != nil {
		s.render.Failure(w, "remove genre", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCast(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}

	var req castCreateRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		s.render.DecodeError(w, err)
		return
	}
	actorID, err := uuid.Parse(strings.TrimSpace(req.ActorID))
	if err != nil {
		s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation, "actorId must be a valid id")
		return
	}

	credit, err := s.repo.Cast.Create(r.Context(), repository.CastCreateParams{
		MovieID:       movieID,
		ActorID:       actorID,
		CharacterName: strings.TrimSpace(req.CharacterName),
		IsLead:        req.IsLead,
	})
	if err != nil {
		s.render.Failure(w, "add cast", err)
		return
	}
	s.render.JSON(w, http.StatusCreated, toCreditResponse(credit))
}

func (s *Server) handleListCast(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.repo.Movies.GetByID(r.Context(), movieID); err != nil {
		s.render.Failure(w, "fetch movie", err)
		return
	}
	credits, err := s.repo.Cast.ListByMovie(r.Context(), movieID)
	if err != nil {
		s.render.Failure(w, "list cast", err)
		return
	}
	items := make([]creditResponse, 0, len(credits))
	for _, c := range credits {
		items = append(items, toCreditResponse(c))
	}
	s.render.JSON(w, http.StatusOK, listResponse[creditResponse]{Items: items})
}

func toMovieResponse(movie domain.Movie) movieResponse {
	resp := movieResponse{
		ID:          movie.ID.String(),
		Title:       movie.Title,
		ReleaseDate: movie.ReleaseDate.Format(dateLayout),
		ReleaseYear: movie.ReleaseYear,
		Runtime:     movie.Runtime,
		Plot:        movie.Plot,
		Genres:      toGenreResponses(movie.Genres),
		AvgRating:   movie.AvgRating,
	}
	if movie.DirectorID != nil {
		id := movie.DirectorID.String()
		resp.DirectorID = &id
	}
	if movie.Director != nil {
		d := toDirectorResponse(*movie.Director)
		resp.Director = &d
	}
	return resp
}

func toCreditResponse(c domain.MovieActor) creditResponse {
	resp := creditResponse{
		ID:            c.ID.String(),
		MovieID:       c.MovieID.String(),
		ActorID:       c.ActorID.String(),
		CharacterName: c.CharacterName,
		IsLead:        c.IsLead,
	}
	if c.Actor != nil {
		a := toActorResponse(*c.Actor)
		resp.Actor = &a
	}
	return resp
}
