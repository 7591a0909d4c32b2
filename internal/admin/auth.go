package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/render"
	"github.com/Clark-Hu/library-manager/internal/repository"
)

type ctxKey int

const userKey ctxKey = iota

// Principal identifies who is using the admin.
type Principal struct {
	Username string
	ViaToken bool
}

// PrincipalFrom returns the authenticated principal stored on ctx.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(userKey).(Principal)
	return p, ok
}

// requireSuperuser admits requests carrying the admin bearer token or HTTP
// Basic credentials of a superuser.
func (s *Site) requireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifyToken(r.Header.Get("Authorization")) {
			ctx := context.WithValue(r.Context(), userKey, Principal{Username: "token", ViaToken: true})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			s.challenge(w)
			return
		}
		user, err := s.auth.Authenticate(r.Context(), username, password)
		if err != nil {
			if errors.Is(err, repository.ErrInvalidCredentials) {
				s.logger.Info("admin: rejected credentials", zap.String("username", username))
				s.challenge(w)
				return
			}
			s.render.Failure(w, "authenticate", err)
			return
		}
		if !user.IsSuperuser {
			s.render.Error(w, http.StatusForbidden, render.CodeForbidden, "Superuser access required")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, Principal{Username: user.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Site) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
	s.render.Error(w, http.StatusUnauthorized, render.CodeUnauthorized, "Missing or invalid authentication information")
}

func (s *Site) verifyToken(header string) bool {
	if s.adminToken == "" || header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) == 1
}
