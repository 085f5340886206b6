package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mkisten/UserBankingService/internal/services"
	"github.com/sirupsen/logrus"
)

// Authenticator resolves credentials to a user id.
type Authenticator interface {
	Login(ctx context.Context, email, phone, password string) (int64, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

type AuthHandler struct {
	auth      Authenticator
	tokens    TokenIssuer
	validator *services.ValidationHelper
	log       *logrus.Entry
}

func NewAuthHandler(auth Authenticator, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		tokens:    tokens,
		validator: services.NewValidationHelper(),
		log:       logrus.WithField("component", "auth_handler"),
	}
}

// LoginRequest carries either an email or a phone plus the password.
type LoginRequest struct {
	Email    string `json:"email,omitempty" validate:"max=200" example:"john@example.com"`
	Phone    string `json:"phone,omitempty" validate:"max=13" example:"79201234567"`
	Password string `json:"password" validate:"required" example:"p@ss"`
}

// Login authenticates a user by email or phone
// @Summary Log in
// @Description Exchange email (preferred) or phone plus password for a bearer token
// @Tags Auth
// @Accept json
// @Produce plain
// @Param request body LoginRequest true "Credentials"
// @Success 200 {string} string "JWT"
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		h.log.WithError(err).Debug("[AUTH] Login - decode error")
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	userID, err := h.auth.Login(r.Context(), req.Email, req.Phone, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(userID)
	if err != nil {
		h.log.WithError(err).Error("[AUTH] Login - token signing failed")
		writeError(w, services.Internal(err))
		return
	}

	h.log.WithField("user_id", userID).Info("[AUTH] Login - token issued")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, token)
}
