package handler

import (
	"errors"
	"net/http"

	"procurehub/internal/service"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrUnknownNotificationKind),
		errors.Is(err, service.ErrProductInactive):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnsafeDeletion), errors.Is(err, service.ErrProductNotDeletable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
