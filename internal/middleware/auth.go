package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mkisten/UserBankingService/internal/services"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userIDKey contextKey = "userID"

// PublicPaths are served without a bearer token. Entries ending in "/" match
// by prefix.
var PublicPaths = []string{
	"/api/auth/",
	"/swagger/",
	"/v3/api-docs",
	"/health",
	"/metrics",
}

// TokenParser verifies a bearer token and returns the user id it names.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// Authenticate installs the caller's user id in the request context when a
// valid bearer token is presented. It never rejects; RequireUser does.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	log := logrus.WithField("component", "auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("[AUTH] rejected bearer token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequireUser responds 401 unless Authenticate identified the caller.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

func IsPublic(path string) bool {
	for _, p := range PublicPaths {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
