package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/mkisten/UserBankingService/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	auth      *MockAuthenticator
	tokens    *MockTokens
	users     *MockDirectory
	transfers *MockTransferrer
	db        *stubPinger
	router    http.Handler
}

type stubPinger struct{ err error }

func (p *stubPinger) PingContext(ctx context.Context) error { return p.err }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:      &MockAuthenticator{},
		tokens:    &MockTokens{},
		users:     &MockDirectory{},
		transfers: &MockTransferrer{},
		db:        &stubPinger{},
	}
	f.router = NewRouter(RouterConfig{
		Auth:           NewAuthHandler(f.auth, f.tokens),
		Users:          NewUserHandler(f.users, f.transfers),
		Tokens:         f.tokens,
		DB:             f.db,
		AllowedOrigins: []string{"*"},
	})
	t.Cleanup(func() {
		f.auth.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
		f.users.AssertExpectations(t)
		f.transfers.AssertExpectations(t)
	})
	return f
}

// as authenticates the request as userID through the real middleware chain.
func (f *fixture) as(r *http.Request, userID int64) *http.Request {
	token := "token-" + strconv.FormatInt(userID, 10)
	f.tokens.On("Parse", token).Return(userID, nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func (f *fixture) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) services.ErrorResponse {
	t.Helper()
	var resp services.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLogin(t *testing.T) {
	t.Run("success returns token as text", func(t *testing.T) {
		f := newFixture(t)
		f.auth.On("Login", mock.Anything, "john@example.com", "", "p@ss").Return(int64(1), nil)
		f.tokens.On("Generate", int64(1)).Return("signed.jwt.token", nil)

		w := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"john@example.com","password":"p@ss"}`)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "signed.jwt.token", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t)
		f.auth.On("Login", mock.Anything, "john@example.com", "", "wrong").
			Return(int64(0), services.Unauthenticated("invalid credentials"))

		w := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"john@example.com","password":"wrong"}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid credentials", errorBody(t, w).Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		f.auth.On("Login", mock.Anything, "", "70000000000", "p@ss").
			Return(int64(0), services.NotFound("user not found"))

		w := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"phone":"70000000000","password":"p@ss"}`)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"john@example.com"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorBody(t, w).Details, "Password")
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = f.do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"password":"x","role":"admin"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	f.tokens.On("Parse", "expired").Return(int64(0), errors.New("token is expired"))

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/users/search"},
		{http.MethodPut, "/api/users/emails"},
		{http.MethodDelete, "/api/users/phones"},
		{http.MethodPost, "/api/users/transfers"},
	}
	for _, rt := range routes {
		w := f.do(httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, rt.path)

		r := httptest.NewRequest(rt.method, rt.path, nil)
		r.Header.Set("Authorization", "Bearer expired")
		assert.Equal(t, http.StatusUnauthorized, f.do(r).Code, rt.path)
	}
}

func TestSearch(t *testing.T) {
	t.Run("defaults and criteria", func(t *testing.T) {
		f := newFixture(t)
		dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
		page := models.NewPage([]models.UserView{{ID: 1, Name: "John"}, {ID: 2, Name: "Johanna"}}, 0, 10, 2)
		f.users.On("Search", mock.Anything, models.SearchCriteria{Name: "Jo", DateOfBirth: &dob}, 0, 10).Return(page, nil)

		r := f.as(httptest.NewRequest(http.MethodGet, "/api/users/search?name=Jo&dateOfBirth=1990-01-01", nil), 1)
		w := f.do(r)

		require.Equal(t, http.StatusOK, w.Code)
		var got models.Page[models.UserView]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(2), got.TotalElements)
		assert.Len(t, got.Content, 2)
	})

	t.Run("bad parameters", func(t *testing.T) {
		f := newFixture(t)
		for _, q := range []string{"dateOfBirth=01-01-1990", "page=x", "size=ten"} {
			r := f.as(httptest.NewRequest(http.MethodGet, "/api/users/search?"+q, nil), 1)
			assert.Equal(t, http.StatusBadRequest, f.do(r).Code, q)
		}
	})

	t.Run("service validation", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("Search", mock.Anything, models.SearchCriteria{}, -1, 10).
			Return(models.Page[models.UserView]{}, services.BadRequest("page must not be negative"))

		r := f.as(httptest.NewRequest(http.MethodGet, "/api/users/search?page=-1", nil), 1)
		assert.Equal(t, http.StatusBadRequest, f.do(r).Code)
	})
}

func TestContacts(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		kind   models.ContactKind
		value  string
		err    error
		status int
	}{
		{"add email", http.MethodPut, "/api/users/emails", "new@x.io", models.ContactEmail, "new@x.io", nil, http.StatusOK},
		{"add quoted email", http.MethodPut, "/api/users/emails", `"new@x.io"`, models.ContactEmail, "new@x.io", nil, http.StatusOK},
		{"duplicate email", http.MethodPut, "/api/users/emails", "a@x", models.ContactEmail, "a@x", services.Conflict("email already in use"), http.StatusConflict},
		{"remove last email", http.MethodDelete, "/api/users/emails", "a@x", models.ContactEmail, "a@x", services.Conflict("at least one email required"), http.StatusConflict},
		{"remove foreign phone", http.MethodDelete, "/api/users/phones", "79201234567", models.ContactPhone, "79201234567", services.Forbidden("phone belongs to another user"), http.StatusForbidden},
		{"remove unknown phone", http.MethodDelete, "/api/users/phones", "70000000000", models.ContactPhone, "70000000000", services.NotFound("phone not found"), http.StatusNotFound},
		{"add phone", http.MethodPut, "/api/users/phones", "79201234567\n", models.ContactPhone, "79201234567", nil, http.StatusOK},
		{"store failure", http.MethodPut, "/api/users/phones", "79201234567", models.ContactPhone, "79201234567", services.Internal(errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			method := "AddContact"
			if tt.method == http.MethodDelete {
				method = "RemoveContact"
			}
			f.users.On(method, mock.Anything, int64(2), tt.kind, tt.value).Return(tt.err)

			r := f.as(httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)), 2)
			w := f.do(r)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "db down")
			}
		})
	}
}

func TestTransfer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.transfers.On("Transfer", mock.Anything, int64(1), int64(2),
			mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("100")) })).
			Return(nil)

		r := f.as(httptest.NewRequest(http.MethodPost, "/api/users/transfers",
			strings.NewReader(`{"toUserId":2,"amount":100.00}`)), 1)
		assert.Equal(t, http.StatusOK, f.do(r).Code)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		f := newFixture(t)
		f.transfers.On("Transfer", mock.Anything, int64(1), int64(2), mock.Anything).
			Return(services.Conflict("insufficient funds"))

		r := f.as(httptest.NewRequest(http.MethodPost, "/api/users/transfers",
			strings.NewReader(`{"toUserId":2,"amount":"2000.00"}`)), 1)
		w := f.do(r)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "insufficient funds", errorBody(t, w).Error)
	})

	t.Run("missing account", func(t *testing.T) {
		f := newFixture(t)
		f.transfers.On("Transfer", mock.Anything, int64(1), int64(9), mock.Anything).
			Return(services.NotFound("account for user 9 not found"))

		r := f.as(httptest.NewRequest(http.MethodPost, "/api/users/transfers",
			strings.NewReader(`{"toUserId":9,"amount":1}`)), 1)
		assert.Equal(t, http.StatusNotFound, f.do(r).Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		f := newFixture(t)
		for _, body := range []string{`{"amount":1}`, `{"toUserId":2,"amount":"abc"}`, `not json`} {
			r := f.as(httptest.NewRequest(http.MethodPost, "/api/users/transfers", strings.NewReader(body)), 1)
			assert.Equal(t, http.StatusBadRequest, f.do(r).Code, body)
		}
	})
}

func TestHealthAndDocs(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	f.db.err = errors.New("down")
	w = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/users/transfers")

	w = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(services.KindBadRequest))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(services.KindUnauthenticated))
	assert.Equal(t, http.StatusForbidden, StatusFor(services.KindForbidden))
	assert.Equal(t, http.StatusNotFound, StatusFor(services.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(services.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(services.KindInternal))
}
