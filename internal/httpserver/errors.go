package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	middleware "github.com/Skotchmaster/echoshop/pkg/middleware/auth"
)

const internalMessage = "Internal server error"

func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	msg := service.Message(err)
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	default:
		msg = internalMessage
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

// fail logs err under event and converts it to the HTTP error the client gets.
func fail(l *slog.Logger, event string, err error) error {
	he := toHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		l.Error(event, "status", he.Code, "reason", he.Message, "error", err)
	} else {
		l.Warn(event, "status", he.Code, "reason", he.Message, "error", err)
	}
	return he
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// HTTPErrorHandler renders every error as {"message": "..."}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := toHTTPError(err)
	msg := fmt.Sprint(he.Message)
	if m, ok := he.Message.(string); ok {
		msg = m
	}
	if he.Code >= http.StatusInternalServerError && msg != internalMessage {
		msg = internalMessage
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, transport.MessageResponse{Message: msg})
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func principal(c echo.Context) (service.Principal, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return service.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}
	return service.Principal{UserID: id, IsAdmin: middleware.IsAdmin(c)}, nil
}
