package common

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business error kinds. Handlers match on these with errors.Is to pick the
// HTTP status; everything else is treated as an internal failure.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderStatus       = errors.New("illegal order status transition")
)

// E wraps a kind with a human-readable detail message.
func E(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func statusCode(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrOrderStatus):
		return http.StatusConflict, "ORDER_STATUS_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// RespondError writes the JSON error response for err. Internal failures are
// logged with full detail and surfaced with a generic message only.
func RespondError(c *gin.Context, err error) {
	status, code := statusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", slog.String("path", c.FullPath()), slog.Any("error", err))
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"code": code, "error": msg})
}
