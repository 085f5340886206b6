package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkisten/UserBankingService/internal/middleware"
	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/mkisten/UserBankingService/internal/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultPage = 0
	defaultSize = 10
	maxRawBody  = 1024
)

// Directory is the user-facing part of the user service.
type Directory interface {
	Search(ctx context.Context, c models.SearchCriteria, page, size int) (models.Page[models.UserView], error)
	AddContact(ctx context.Context, userID int64, kind models.ContactKind, value string) error
	RemoveContact(ctx context.Context, userID int64, kind models.ContactKind, value string) error
}

type Transferrer interface {
	Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) error
}

type UserHandler struct {
	users     Directory
	transfers Transferrer
	validator *services.ValidationHelper
	log       *logrus.Entry
}

func NewUserHandler(users Directory, transfers Transferrer) *UserHandler {
	return &UserHandler{
		users:     users,
		transfers: transfers,
		validator: services.NewValidationHelper(),
		log:       logrus.WithField("component", "user_handler"),
	}
}

// TransferRequest moves money from the caller to another user.
type TransferRequest struct {
	ToUserID int64           `json:"toUserId" validate:"required,gt=0" example:"2"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"number" example:"100.00"`
}

// Search lists users matching every supplied filter
// @Summary Search users
// @Description Paginated directory search; name is a prefix match, dateOfBirth matches users born after the date
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param name query string false "Name prefix"
// @Param email query string false "Exact email"
// @Param phone query string false "Exact phone"
// @Param dateOfBirth query string false "YYYY-MM-DD, exclusive lower bound"
// @Param page query int false "Page index" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} object{content=[]models.UserView,page=int,size=int,totalElements=int,totalPages=int}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /users/search [get]
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := models.SearchCriteria{
		Name:  q.Get("name"),
		Email: q.Get("email"),
		Phone: q.Get("phone"),
	}

	if raw := q.Get("dateOfBirth"); raw != "" {
		dob, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			services.SendErrorResponse(w, "dateOfBirth must be YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		criteria.DateOfBirth = &dob
	}

	page, err := intParam(q.Get("page"), defaultPage)
	if err != nil {
		services.SendErrorResponse(w, "page must be an integer", http.StatusBadRequest, nil)
		return
	}
	size, err := intParam(q.Get("size"), defaultSize)
	if err != nil {
		services.SendErrorResponse(w, "size must be an integer", http.StatusBadRequest, nil)
		return
	}

	result, err := h.users.Search(r.Context(), criteria, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AddEmail attaches an email to the caller
// @Summary Add email
// @Tags Users
// @Accept plain
// @Security BearerAuth
// @Param email body string true "Email address"
// @Success 200
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users/emails [put]
func (h *UserHandler) AddEmail(w http.ResponseWriter, r *http.Request) {
	h.mutateContact(w, r, models.ContactEmail, true)
}

// RemoveEmail detaches one of the caller's emails
// @Summary Remove email
// @Tags Users
// @Accept plain
// @Security BearerAuth
// @Param email body string true "Email address"
// @Success 200
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users/emails [delete]
func (h *UserHandler) RemoveEmail(w http.ResponseWriter, r *http.Request) {
	h.mutateContact(w, r, models.ContactEmail, false)
}

// AddPhone attaches a phone to the caller
// @Summary Add phone
// @Tags Users
// @Accept plain
// @Security BearerAuth
// @Param phone body string true "Phone number"
// @Success 200
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users/phones [put]
func (h *UserHandler) AddPhone(w http.ResponseWriter, r *http.Request) {
	h.mutateContact(w, r, models.ContactPhone, true)
}

// RemovePhone detaches one of the caller's phones
// @Summary Remove phone
// @Tags Users
// @Accept plain
// @Security BearerAuth
// @Param phone body string true "Phone number"
// @Success 200
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users/phones [delete]
func (h *UserHandler) RemovePhone(w http.ResponseWriter, r *http.Request) {
	h.mutateContact(w, r, models.ContactPhone, false)
}

func (h *UserHandler) mutateContact(w http.ResponseWriter, r *http.Request, kind models.ContactKind, add bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	value, err := readRawValue(w, r)
	if err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if add {
		err = h.users.AddContact(r.Context(), userID, kind, value)
	} else {
		err = h.users.RemoveContact(r.Context(), userID, kind, value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Transfer sends money from the caller's account
// @Summary Transfer money
// @Tags Users
// @Accept json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer"
// @Success 200
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users/transfers [post]
func (h *UserHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		h.log.WithError(err).Debug("[TRANSFER] decode error")
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

	if err := h.transfers.Transfer(r.Context(), userID, req.ToUserID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// readRawValue reads a text body. A JSON string literal is unquoted.
func readRawValue(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRawBody))
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(string(body))
	if len(value) >= 2 && value[0] == '"' {
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
	}
	return value, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
