package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/admin"
	"github.com/Clark-Hu/library-manager/internal/config"
	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/logger"
	"github.com/Clark-Hu/library-manager/internal/metrics"
	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/store"
)

// Recommender produces movie recommendations for a user.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Movie, error)
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg         config.Config
	store       *store.Store
	repo        *repository.Repository
	recommender Recommender
	admin       *admin.Site
	logger      *zap.Logger
	render      render.Renderer
	router      chi.Router
	httpSrv     *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, rec Recommender, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:         cfg,
		store:       st,
		repo:        repo,
		recommender: rec,
		admin:       admin.NewSite(repo, rec, cfg.AdminToken, log.Named("admin")),
		logger:      log,
		render:      render.New(log),
		router:      r,
	}
	s.registerRoutes()
	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/directors", func(r chi.Router) {
		r.Get("/", s.handleListDirectors)
		r.Post("/", s.handleCreateDirector)
		r.Get("/{id}", s.handleGetDirector)
	})
	s.router.Route("/actors", func(r chi.Router) {
		r.Get("/", s.handleListActors)
		r.Post("/", s.handleCreateActor)
		r.Get("/{id}", s.handleGetActor)
	})
	s.router.Route("/genres", func(r chi.Router) {
		r.Get("/", s.handleListGenres)
		r.Post("/", s.handleCreateGenre)
	})
	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)
		r.Post("/", s.handleCreateMovie)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetMovie)
			r.Post("/genres", s.handleAddMovieGenres)
			r.Get("/cast", s.handleListCast)
			r.Post("/cast", s.handleAddCast)
			r.Route("/ratings", func(r chi.Router) {
				r.Post("/", s.handleSubmitRating)
				r.Put("/", s.handleUpdateRating)
				r.Delete("/", s.handleDeleteRating)
				r.Get("/mine", s.handleGetOwnRating)
			})
			r.Delete("/genres/{genreId}", s.handleRemoveMovieGenre)
			r.Get("/rating", s.handleGetRating)
		})
	})
	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleCreateUser)
		r.Get("/{username}/recommendations", s.handleRecommendations)
		r.Get("/{username}/ratings", s.handleListUserRatings)
	})

	s.router.Mount("/admin", s.admin.Router())
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http: listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http: shutdown incomplete", zap.Error(err))
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.render.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", http.StatusText(http.StatusServiceUnavailable))
		return
	}
	resp := healthResponse{Status: "ok"}
	if stat := s.store.Stats(); stat != nil {
		resp.Pool = &poolStats{
			Total:    stat.TotalConns(),
			Idle:     stat.IdleConns(),
			Acquired: stat.AcquiredConns(),
			Max:      stat.MaxConns(),
		}
	}
	s.render.JSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string     `json:"status"`
	Pool   *poolStats `json:"pool,omitempty"`
}

type poolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}
