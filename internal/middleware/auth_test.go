package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubParser struct {
	id  int64
	err error
	got string
}

func (s *stubParser) Parse(token string) (int64, error) {
	s.got = token
	return s.id, s.err
}

func captureUser(seen *int64, present *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, *present = UserIDFromContext(r.Context())
	})
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		header  string
		parser  *stubParser
		wantID  int64
		wantSet bool
	}{
		{"valid token", "/api/users/search", "Bearer good", &stubParser{id: 1}, 1, true},
		{"missing header", "/api/users/search", "", &stubParser{id: 1}, 0, false},
		{"wrong scheme", "/api/users/search", "Basic abc", &stubParser{id: 1}, 0, false},
		{"invalid token", "/api/users/search", "Bearer bad", &stubParser{err: errors.New("expired")}, 0, false},
		{"public path skips parsing", "/api/auth/login", "Bearer good", &stubParser{id: 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				seen    int64
				present bool
			)
			h := Authenticate(tt.parser)(captureUser(&seen, &present))

			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)

			assert.Equal(t, tt.wantSet, present)
			assert.Equal(t, tt.wantID, seen)
		})
	}
}

func TestAuthenticate_StripsScheme(t *testing.T) {
	p := &stubParser{id: 5}
	var (
		seen    int64
		present bool
	)
	r := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	Authenticate(p)(captureUser(&seen, &present)).ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "abc.def.ghi", p.got)
}

func TestRequireUser(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	w := httptest.NewRecorder()
	RequireUser(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/search", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	RequireUser(ok).ServeHTTP(w, r.WithContext(WithUserID(r.Context(), 3)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic("/api/auth/login"))
	assert.True(t, IsPublic("/swagger/index.html"))
	assert.True(t, IsPublic("/health"))
	assert.False(t, IsPublic("/healthz"))
	assert.False(t, IsPublic("/api/users/transfers"))
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
