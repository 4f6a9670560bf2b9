package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Code is
// a machine-readable discriminator; clients use it to decide whether a 401
// warrants a refresh attempt or a full re-login.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const codeSessionExpired = "session_expired"

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the auth error taxonomy to deterministic HTTP status codes.
//   - Keeps the 401 body uniform so failed logins reveal nothing about which
//     check rejected them.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, errorResponse{Error: "session expired", Code: codeSessionExpired}
	case errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrMalformedHash):
		// Stored credential record is corrupt. Not user-actionable.
		log.Error().Err(err).Str("path", c.Path()).Msg("credential integrity failure")
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
