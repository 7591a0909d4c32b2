// Package admin serves the administrative surface: a registry of model admins
// with changelist, detail and bulk-action endpoints, restricted to superusers.
package admin

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

// AppLabel prefixes every registered model key.
const AppLabel = "movies"

// RecommendationLimit is the number of titles the bulk action lists per user.
const RecommendationLimit = 5

// Recommender produces recommendations for a user.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Movie, error)
}

// Authenticator verifies username/password pairs.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
}

// Row is one record as rendered by a changelist or detail view.
type Row map[string]interface{}

// Action is a bulk operation applied to the selected records of a model. It
// returns one message per record acted upon.
type Action struct {
	Name        string
	Description string
	Run         func(ctx context.Context, ids []uuid.UUID) ([]string, error)
}

// ModelAdmin describes how one model is listed and inspected.
type ModelAdmin struct {
	Model       string
	VerboseName string
	ListDisplay []string
	Actions     []Action

	count func(ctx context.Context) (int64, error)
	list  func(ctx context.Context, page repository.Page) ([]Row, error)
	get   func(ctx context.Context, id uuid.UUID) (Row, error)
}

// Key returns the registry key, e.g. "movies.director".
func (m *ModelAdmin) Key() string {
	return AppLabel + "." + m.Model
}

// Action looks up an action by name.
func (m *ModelAdmin) Action(name string) (Action, bool) {
	for _, a := range m.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Site is the admin registry and its HTTP surface.
type Site struct {
	models      map[string]*ModelAdmin
	auth        Authenticator
	recommender Recommender
	adminToken  string
	logger      *zap.Logger
	render      render.Renderer
}

// NewSite builds an admin site with every catalog model registered.
func NewSite(repo *repository.Repository, recommender Recommender, adminToken string, logger *zap.Logger) *Site {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Site{
		models:      make(map[string]*ModelAdmin),
		auth:        repo.Users,
		recommender: recommender,
		adminToken:  adminToken,
		logger:      logger,
		render:      render.New(logger),
	}
	registerCatalog(s, repo)
	return s
}

// Register adds a model admin. Registering the same model twice panics.
func (s *Site) Register(m *ModelAdmin) {
	if _, exists := s.models[m.Model]; exists {
		panic(fmt.Sprintf("admin: model %s already registered", m.Key()))
	}
	s.models[m.Model] = m
}

// Model returns the admin registered under name.
func (s *Site) Model(name string) (*ModelAdmin, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Models returns the registered admins ordered by model name.
func (s *Site) Models() []*ModelAdmin {
	out := make([]*ModelAdmin, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}
