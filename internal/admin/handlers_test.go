package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/library-manager/internal/admin"
	"github.com/Clark-Hu/library-manager/internal/domain"
	"github.com/Clark-Hu/library-manager/internal/recommend"
	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/testdb"
)

const adminToken = "admin-token-0123456789"

type fixture struct {
	handler http.Handler
	repo    *repository.Repository
	alice   domain.UserProfile
	bob     domain.UserProfile
	movies  map[string]domain.Movie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	ctx := context.Background()
	repo := repository.NewWithPool(testdb.New(t, "catalog_admin"))

	_, err := repo.Users.Create(ctx, repository.UserCreateParams{Username: "admin", Password: "adminpassword", IsSuperuser: true})
	require.NoError(t, err)
	alice, err := repo.Users.Create(ctx, repository.UserCreateParams{Username: "alice", Password: "testpass123"})
	require.NoError(t, err)
	bob, err := repo.Users.Create(ctx, repository.UserCreateParams{Username: "bob", Password: "testpass123"})
	require.NoError(t, err)

	nolan, err := repo.Directors.Create(ctx, repository.PersonCreateParams{Name: "Christopher Nolan"})
	require.NoError(t, err)
	dicaprio, err := repo.Actors.Create(ctx, repository.PersonCreateParams{Name: "Leonardo DiCaprio"})
	require.NoError(t, err)
	sciFi, err := repo.Genres.Create(ctx, repository.GenreCreateParams{Name: "Sci-Fi"})
	require.NoError(t, err)
	comedy, err := repo.Genres.Create(ctx, repository.GenreCreateParams{Name: "Comedy"})
	require.NoError(t, err)

	movies := map[string]domain.Movie{}
	for _, spec := range []struct {
		title string
		genre domain.Genre
	}{
		{"Inception", sciFi},
		{"Interstellar", sciFi},
		{"Airplane!", comedy},
	} {
		m, err := repo.Movies.Create(ctx, repository.MovieCreateParams{
			Title:       spec.title,
			ReleaseDate: time.Date(2010, time.July, 16, 0, 0, 0, 0, time.UTC),
			DirectorID:  &nolan.ID,
			GenreIDs:    []uuid.UUID{spec.genre.ID},
		})
		require.NoError(t, err)
		movies[spec.title] = m
	}

	_, err = repo.Cast.Create(ctx, repository.CastCreateParams{
		MovieID: movies["Inception"].ID, ActorID: dicaprio.ID, CharacterName: "Dom Cobb", IsLead: true,
	})
	require.NoError(t, err)
	_, err = repo.Ratings.Create(ctx, repository.RatingCreateParams{MovieID: movies["Inception"].ID, UserID: alice.UserID, Value: 10})
	require.NoError(t, err)
	_, err = repo.Ratings.Create(ctx, repository.RatingCreateParams{MovieID: movies["Airplane!"].ID, UserID: bob.UserID, Value: 8})
	require.NoError(t, err)

	rec := recommend.New(repo.Recommendations, recommend.Config{}, nil)
	site := admin.NewSite(repo, rec, adminToken, nil)
	router := chi.NewRouter()
	router.Mount("/admin", site.Router())

	return &fixture{handler: router, repo: repo, alice: alice, bob: bob, movies: movies}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func asAdmin(req *http.Request) *http.Request {
	req.SetBasicAuth("admin", "adminpassword")
	return req
}

func TestAdminAccess(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var index struct {
		User string `json:"user"`
		Apps []struct {
			AppLabel string `json:"appLabel"`
			Models   []struct {
				Key string `json:"key"`
			} `json:"models"`
		} `json:"apps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &index))
	assert.Equal(t, "admin", index.User)
	require.Len(t, index.Apps, 1)
	assert.Len(t, index.Apps[0].Models, 7)
}

func TestModelAdminChangelists(t *testing.T) {
	f := newFixture(t)
	expected := map[string]int64{
		"director":    1,
		"actor":       1,
		"genre":       2,
		"movie":       3,
		"movieactor":  1,
		"userprofile": 3,
		"rating":      2,
	}

	for model, count := range expected {
		t.Run(model, func(t *testing.T) {
			rec := f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/"+model+"/", nil)))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body struct {
				Key     string                   `json:"key"`
				Count   int64                    `json:"count"`
				Results []map[string]interface{} `json:"results"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "movies."+model, body.Key)
			assert.Equal(t, count, body.Count)
			assert.Len(t, body.Results, int(count))
		})
	}
}

func TestChangelistPaging(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/movie/?page=2&per_page=2", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int64                    `json:"count"`
		Page    int                      `json:"page"`
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Count)
	assert.Equal(t, 2, body.Page)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Interstellar", body.Results[0]["title"])

	rec = f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/movie/?page=0", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuthentication(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/admin/movies/movie/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="admin"`, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/admin/movies/movie/", nil)
	req.SetBasicAuth("admin", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, f.do(t, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/movies/movie/", nil)
	req.SetBasicAuth("alice", "testpass123")
	assert.Equal(t, http.StatusForbidden, f.do(t, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/movies/movie/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, f.do(t, req).Code)
}

func TestAdminDetail(t *testing.T) {
	f := newFixture(t)
	inception := f.movies["Inception"]

	rec := f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/movie/"+inception.ID.String()+"/", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Object struct {
			Title     string  `json:"title"`
			Director  string  `json:"director"`
			AvgRating float64 `json:"avg_rating"`
			Cast      []struct {
				CharacterName string `json:"character_name"`
				IsLead        bool   `json:"is_lead"`
			} `json:"cast"`
		} `json:"object"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Inception", body.Object.Title)
	assert.Equal(t, "Christopher Nolan", body.Object.Director)
	assert.InDelta(t, 10.0, body.Object.AvgRating, 0.001)
	require.Len(t, body.Object.Cast, 1)
	assert.Equal(t, "Dom Cobb", body.Object.Cast[0].CharacterName)
	assert.True(t, body.Object.Cast[0].IsLead)

	rec = f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/movie/"+uuid.NewString()+"/", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/movie/not-a-uuid/", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/studio/", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecommendationsAction(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/movies/userprofile/actions/", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "get_recommendations")

	payload, err := json.Marshal(map[string][]string{
		"selected": {f.alice.ID.String(), uuid.NewString(), f.bob.ID.String()},
	})
	require.NoError(t, err)
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/admin/movies/userprofile/actions/get_recommendations", bytes.NewBuffer(payload)))
	req.Header.Set("Content-Type", "application/json")
	rec = f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Action   string   `json:"action"`
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "get_recommendations", body.Action)
	assert.Equal(t, []string{
		"Recommendations for alice: Interstellar, Airplane!",
		"Recommendations for bob: Inception, Interstellar",
	}, body.Messages)
}

func TestGetRecommendationsActionForm(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"_selected_action": {f.bob.ID.String()}}
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/admin/movies/userprofile/actions/get_recommendations", strings.NewReader(form.Encode())))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recommendations for bob: Inception, Interstellar")
}

func TestGetRecommendationsActionRejectsBadSelection(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"empty":   `{"selected":[]}`,
		"garbage": `{"selected":["nope"]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := asAdmin(httptest.NewRequest(http.MethodPost, "/admin/movies/userprofile/actions/get_recommendations", strings.NewReader(body)))
			req.Header.Set("Content-Type", "application/json")
			assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, req).Code)
		})
	}

	req := asAdmin(httptest.NewRequest(http.MethodPost, "/admin/movies/movie/actions/get_recommendations", strings.NewReader(`{"selected":[]}`)))
	assert.Equal(t, http.StatusNotFound, f.do(t, req).Code)
}
