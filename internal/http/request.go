package httpserver

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

const dateLayout = "2006-01-02"

// requireBearer rejects the request unless it carries the admin token.
func (s *Server) requireBearer(w http.ResponseWriter, r *http.Request) bool {
	if s.verifyBearer(r.Header.Get("Authorization")) {
		return true
	}
	s.render.Error(w, http.StatusUnauthorized, render.CodeUnauthorized, "Missing or invalid authentication information")
	return false
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AdminToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) == 1
}

// idParam parses a uuid path parameter. Malformed ids are answered with 404
// since no such resource can exist.
func (s *Server) idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		s.render.Error(w, http.StatusNotFound, render.CodeNotFound, "Resource not found")
		return uuid.Nil, false
	}
	return id, true
}

func parsePage(query url.Values) (repository.Page, error) {
	var page repository.Page
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return page, fmt.Errorf("invalid limit value")
		}
		page.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("offset")); val != "" {
		offset, err := strconv.Atoi(val)
		if err != nil || offset < 0 {
			return page, fmt.Errorf("invalid offset value")
		}
		page.Offset = offset
	}
	return page, nil
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", v)
		}
		out = append(out, id)
	}
	return out, nil
}
