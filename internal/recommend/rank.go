// Package recommend ranks unseen movies for a user by how closely their
// genres match the genres of the movies the user rated highly.
package recommend

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Clark-Hu/library-manager/internal/domain"
)

// RatedMovie is a movie together with the value the user gave it.
type RatedMovie struct {
	Movie domain.Movie
	Value int
}

// Candidate is a movie the user may be shown, with its rating count used as
// a popularity tie-breaker.
type Candidate struct {
	Movie       domain.Movie
	RatingCount int64
}

// Scored is a ranked candidate. Score is the normalized genre similarity in
// [0, 1].
type Scored struct {
	Movie       domain.Movie
	Score       float64
	RatingCount int64
}

// Profile maps genre ids to the summed rating values of the liked movies
// carrying that genre. Weights stay integral so equal similarities compare
// equal.
type Profile map[uuid.UUID]int

// BuildProfile weights every genre of every liked movie by its rating value.
// Ratings below threshold are ignored. The result is empty when nothing is
// liked.
func BuildProfile(rated []RatedMovie, threshold int) Profile {
	profile := make(Profile)
	for _, r := range rated {
		if r.Value < threshold {
			continue
		}
		for _, g := range r.Movie.Genres {
			profile[g.ID] += r.Value
		}
	}
	return profile
}

func (p Profile) total() int {
	var total int
	for _, w := range p {
		total += w
	}
	return total
}

// Weight returns the genre's share of the profile, summing to 1 over all
// genres.
func (p Profile) Weight(genreID uuid.UUID) float64 {
	total := p.total()
	if total == 0 {
		return 0
	}
	return float64(p[genreID]) / float64(total)
}

// Similarity sums the raw profile weights of the movie's genres.
func (p Profile) Similarity(m domain.Movie) int {
	var sum int
	for _, g := range m.Genres {
		sum += p[g.ID]
	}
	return sum
}

// Score is Similarity normalized by the profile total.
func (p Profile) Score(m domain.Movie) float64 {
	total := p.total()
	if total == 0 {
		return 0
	}
	return float64(p.Similarity(m)) / float64(total)
}

// Rank returns up to limit candidates the user has not rated. Candidates with
// positive similarity come first, highest score first; the rest follow in
// popularity order (avg rating, then rating count). Title breaks remaining
// ties so the order is deterministic.
func Rank(rated []RatedMovie, candidates []Candidate, threshold, limit int) []Scored {
	if limit <= 0 {
		return []Scored{}
	}

	seen := make(map[uuid.UUID]struct{}, len(rated))
	for _, r := range rated {
		seen[r.Movie.ID] = struct{}{}
	}
	profile := BuildProfile(rated, threshold)

	total := profile.total()
	similarity := make(map[uuid.UUID]int, len(candidates))
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Movie.ID]; ok {
			continue
		}
		seen[c.Movie.ID] = struct{}{}
		sim := profile.Similarity(c.Movie)
		similarity[c.Movie.ID] = sim
		var score float64
		if total > 0 {
			score = float64(sim) / float64(total)
		}
		scored = append(scored, Scored{
			Movie:       c.Movie,
			Score:       score,
			RatingCount: c.RatingCount,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if sa, sb := similarity[a.Movie.ID], similarity[b.Movie.ID]; sa != sb {
			return sa > sb
		}
		if a.Movie.AvgRating != b.Movie.AvgRating {
			return a.Movie.AvgRating > b.Movie.AvgRating
		}
		if a.RatingCount != b.RatingCount {
			return a.RatingCount > b.RatingCount
		}
		return a.Movie.Title < b.Movie.Title
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
