package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/metrics"
)

// Defaults applied when Config leaves a field unset.
const (
	DefaultLimit         = 5
	DefaultLikeThreshold = 7
)

// Source loads the data the ranking needs for one user.
type Source interface {
	RatedMovies(ctx context.Context, userID uuid.UUID) ([]RatedMovie, error)
	UnratedMovies(ctx context.Context, userID uuid.UUID) ([]Candidate, error)
}

// Config tunes the recommender.
type Config struct {
	DefaultLimit  int
	LikeThreshold int
}

// Recommender produces per-user recommendations. It never writes.
type Recommender struct {
	source Source
	cfg    Config
	logger *zap.Logger
}

// New constructs a Recommender over source.
func New(source Source, cfg Config, logger *zap.Logger) *Recommender {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.LikeThreshold <= 0 {
		cfg.LikeThreshold = DefaultLikeThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{source: source, cfg: cfg, logger: logger}
}

// GetRecommendations returns up to limit movies the user has not rated,
// ordered by genre similarity to the user's liked movies. A non-positive
// limit uses the configured default. Users without liked ratings get the
// most popular unrated movies.
func (r *Recommender) GetRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}

	rated, err := r.source.RatedMovies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rated movies: %w", err)
	}
	candidates, err := r.source.UnratedMovies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load candidate movies: %w", err)
	}

	ranked := Rank(rated, candidates, r.cfg.LikeThreshold, limit)
	movies := make([]domain.Movie, len(ranked))
	for i, s := range ranked {
		movies[i] = s.Movie
	}

	strategy := "genre"
	if len(BuildProfile(rated, r.cfg.LikeThreshold)) == 0 {
		strategy = "popularity"
	}
	metrics.RecommendationsServed.WithLabelValues(strategy).Inc()
	r.logger.Debug("recommendations ranked",
		zap.String("user_id", userID.String()),
		zap.String("strategy", strategy),
		zap.Int("rated", len(rated)),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(movies)))

	return movies, nil
}

// Titles joins movie titles with ", ".
func Titles(movies []domain.Movie) string {
	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = m.Title
	}
	return strings.Join(titles, ", ")
}
