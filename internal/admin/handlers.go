package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	siteTitle      = "Library Manager administration"
)

type modelEntry struct {
	Key           string `json:"key"`
	Model         string `json:"model"`
	Name          string `json:"name"`
	ChangelistURL string `json:"changelistUrl"`
}

type appEntry struct {
	AppLabel string       `json:"appLabel"`
	Models   []modelEntry `json:"models"`
}

type indexResponse struct {
	Title string     `json:"title"`
	User  string     `json:"user"`
	Apps  []appEntry `json:"apps"`
}

type actionEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type changelistResponse struct {
	Key         string        `json:"key"`
	Name        string        `json:"name"`
	ListDisplay []string      `json:"listDisplay"`
	Count       int64         `json:"count"`
	Page        int           `json:"page"`
	PerPage     int           `json:"perPage"`
	Results     []Row         `json:"results"`
	Actions     []actionEntry `json:"actions"`
}

type detailResponse struct {
	Key    string `json:"key"`
	Object Row    `json:"object"`
}

type actionRequest struct {
	Selected []string `json:"selected"`
}

type actionResponse struct {
	Action   string   `json:"action"`
	Messages []string `json:"messages"`
}

// Router returns the admin routes. Mount it under /admin.
func (s *Site) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(s.requireSuperuser)

	r.Get("/", s.handleIndex)
	r.Route("/{app}/{model}", func(r chi.Router) {
		r.Get("/", s.handleChangelist)
		r.Get("/actions", s.handleListActions)
		r.Post("/actions/{action}", s.handleRunAction)
		r.Get("/{id}", s.handleDetail)
	})
	return r
}

func (s *Site) handleIndex(w http.ResponseWriter, r *http.Request) {
	models := s.Models()
	entries := make([]modelEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, modelEntry{
			Key:           m.Key(),
			Model:         m.Model,
			Name:          m.VerboseName,
			ChangelistURL: changelistURL(m),
		})
	}

	principal, _ := PrincipalFrom(r.Context())
	s.render.JSON(w, http.StatusOK, indexResponse{
		Title: siteTitle,
		User:  principal.Username,
		Apps:  []appEntry{{AppLabel: AppLabel, Models: entries}},
	})
}

func (s *Site) handleChangelist(w http.ResponseWriter, r *http.Request) {
	m, ok := s.resolveModel(w, r)
	if !ok {
		return
	}

	page, perPage, err := parsePaging(r)
	if err != nil {
		s.render.Error(w, http.StatusBadRequest, render.CodeBadRequest, err.Error())
		return
	}

	count, err := m.count(r.Context())
	if err != nil {
		s.render.Failure(w, "count "+m.Model, err)
		return
	}
	rows, err := m.list(r.Context(), repository.Page{Limit: perPage, Offset: (page - 1) * perPage})
	if err != nil {
		s.render.Failure(w, "list "+m.Model, err)
		return
	}

	s.render.JSON(w, http.StatusOK, changelistResponse{
		Key:         m.Key(),
		Name:        m.VerboseName,
		ListDisplay: m.ListDisplay,
		Count:       count,
		Page:        page,
		PerPage:     perPage,
		Results:     rows,
		Actions:     actionEntries(m),
	})
}

func (s *Site) handleDetail(w http.ResponseWriter, r *http.Request) {
	m, ok := s.resolveModel(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.render.Error(w, http.StatusNotFound, render.CodeNotFound, "Resource not found")
		return
	}

	row, err := m.get(r.Context(), id)
	if err != nil {
		s.render.Failure(w, "load "+m.Model, err)
		return
	}
	s.render.JSON(w, http.StatusOK, detailResponse{Key: m.Key(), Object: row})
}

func (s *Site) handleListActions(w http.ResponseWriter, r *http.Request) {
	m, ok := s.resolveModel(w, r)
	if !ok {
		return
	}
	s.render.JSON(w, http.StatusOK, actionEntries(m))
}

func (s *Site) handleRunAction(w http.ResponseWriter, r *http.Request) {
	m, ok := s.resolveModel(w, r)
	if !ok {
		return
	}
	action, ok := m.Action(chi.URLParam(r, "action"))
	if !ok {
		s.render.Error(w, http.StatusNotFound, render.CodeNotFound, "Unknown action")
		return
	}

	raw, err := s.selectedIDs(w, r)
	if err != nil {
		s.render.DecodeError(w, err)
		return
	}
	if len(raw) == 0 {
		s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation,
			"Items must be selected in order to perform actions on them")
		return
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			s.render.Error(w, http.StatusUnprocessableEntity, render.CodeValidation,
				fmt.Sprintf("invalid id %q", v))
			return
		}
		ids = append(ids, id)
	}

	messages, err := action.Run(r.Context(), ids)
	if err != nil {
		s.render.Failure(w, "run "+action.Name, err)
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	s.logger.Info("admin: action executed",
		zap.String("model", m.Key()),
		zap.String("action", action.Name),
		zap.String("user", principal.Username),
		zap.Int("messages", len(messages)))
	s.render.JSON(w, http.StatusOK, actionResponse{Action: action.Name, Messages: messages})
}

// selectedIDs reads the selection from a JSON body or from repeated
// _selected_action form values.
func (s *Site) selectedIDs(w http.ResponseWriter, r *http.Request) ([]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm["_selected_action"], nil
	}
	var req actionRequest
	if err := render.DecodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return req.Selected, nil
}

func (s *Site) resolveModel(w http.ResponseWriter, r *http.Request) (*ModelAdmin, bool) {
	if chi.URLParam(r, "app") != AppLabel {
		s.render.Error(w, http.StatusNotFound, render.CodeNotFound, "Unknown app")
		return nil, false
	}
	m, ok := s.Model(chi.URLParam(r, "model"))
	if !ok {
		s.render.Error(w, http.StatusNotFound, render.CodeNotFound, "Unknown model")
		return nil, false
	}
	return m, true
}

func parsePaging(r *http.Request) (page, perPage int, err error) {
	page, perPage = 1, defaultPerPage
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("invalid page value")
		}
	}
	if v := strings.TrimSpace(q.Get("per_page")); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil || perPage < 1 {
			return 0, 0, fmt.Errorf("invalid per_page value")
		}
		if perPage > maxPerPage {
			perPage = maxPerPage
		}
	}
	return page, perPage, nil
}

func changelistURL(m *ModelAdmin) string {
	return fmt.Sprintf("/admin/%s/%s/", AppLabel, m.Model)
}

func actionEntries(m *ModelAdmin) []actionEntry {
	out := make([]actionEntry, 0, len(m.Actions))
	for _, a := range m.Actions {
		out = append(out, actionEntry{
			Name:        a.Name,
			Description: a.Description,
			URL:         changelistURL(m) + "actions/" + a.Name,
		})
	}
	return out
}
