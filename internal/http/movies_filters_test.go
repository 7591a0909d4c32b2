package httpserver

import (
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/Clark-Hu/library-manager/internal/config"
)

func TestBuildMovieFilters(t *testing.T) {
	director := uuid.New()
	values, _ := url.ParseQuery("q= Nolan &year=2010&genre=Sci-Fi&director=" + director.String() + "&limit=150")

	filters, err := buildMovieFilters(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Query == nil || *filters.Query != "Nolan" {
		t.Fatalf("query not trimmed: %+v", filters.Query)
	}
	if filters.Year == nil || *filters.Year != 2010 {
		t.Fatalf("year parse failed: %+v", filters.Year)
	}
	if filters.Genre == nil || *filters.Genre != "Sci-Fi" {
		t.Fatalf("genre parse failed: %+v", filters.Genre)
	}
	if filters.DirectorID == nil || *filters.DirectorID != director {
		t.Fatalf("director parse failed")
	}
	if filters.Limit != 150 {
		t.Fatalf("limit not parsed: %d", filters.Limit)
	}
	if filters.Cursor != nil {
		t.Fatalf("cursor should be empty")
	}
}

func TestBuildMovieFilters_Invalid(t *testing.T) {
	for _, raw := range []string{"year=abc", "director=nolan", "limit=ten", "cursor=%25%25%25"} {
		values, _ := url.ParseQuery(raw)
		if _, err := buildMovieFilters(values); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestVerifyBearer(t *testing.T) {
	srv := &Server{cfg: config.Config{AdminToken: "secret-token-0123"}}
	cases := []struct {
		header  string
		allowed bool
	}{
		{"Bearer secret-token-0123", true},
		{"Bearer secret-token-0123 ", true},
		{"Bearer other", false},
		{"secret-token-0123", false},
		{"", false},
	}
	for _, c := range cases {
		if srv.verifyBearer(c.header) != c.allowed {
			t.Fatalf("verifyBearer(%q) expected %v", c.header, c.allowed)
		}
	}

	open := &Server{}
	if open.verifyBearer("Bearer ") {
		t.Fatalf("empty admin token must not authorize writes")
	}
}
