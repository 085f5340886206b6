package handlers

import (
	"errors"
	"net/http"

	"github.com/mkisten/UserBankingService/internal/services"
)

// StatusFor is the single mapping from domain error kinds to HTTP statuses.
func StatusFor(kind services.Kind) int {
	switch kind {
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse. Internal causes are not exposed.
func writeError(w http.ResponseWriter, err error) {
	kind := services.KindOf(err)
	status := StatusFor(kind)
	if kind == services.KindInternal {
		services.SendErrorResponse(w, "Internal server error", status, nil)
		return
	}

	var e *services.Error
	errors.As(err, &e)
	services.SendErrorResponse(w, e.Message, status, e.Err)
}
