package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/service"
	"github.com/Skotchmaster/shop_admin/internal/storage"
)

// mapError logs err and converts it to the HTTP error the client sees.
func mapError(l *slog.Logger, op string, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return invalidInput(l, op, "Only image files can be uploaded", err)
	case errors.Is(err, service.ErrValidation):
		msg := clientMessage(err)
		l.Warn(op+"_failed", "status", http.StatusUnprocessableEntity, "reason", msg, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_failed", "status", http.StatusNotFound, "reason", notFoundMsg, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	case errors.Is(err, service.ErrConflict):
		msg := clientMessage(err)
		l.Warn(op+"_failed", "status", http.StatusConflict, "reason", msg, "error", err)
		return echo.NewHTTPError(http.StatusConflict, msg)
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(op+"_failed", "status", http.StatusUnauthorized, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	default:
		l.Error(op+"_failed", "status", http.StatusInternalServerError, "reason", "store error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// clientMessage drops the sentinel suffix from "x is required: validation".
func clientMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i > 0 {
		msg = msg[:i]
	}
	if msg == "" {
		return "Invalid request"
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func invalidInput(l *slog.Logger, op, msg string, err error) error {
	l.Warn(op+"_failed", "status", http.StatusUnprocessableEntity, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
}
