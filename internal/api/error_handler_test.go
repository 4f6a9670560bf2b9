package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

func render(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	e.HTTPErrorHandler(err, c)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, body
}

func TestErrorHandler_Taxonomy(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
		code    string
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials", ""},
		{"session expired", domain.ErrSessionExpired, http.StatusUnauthorized, "session expired", "session_expired"},
		{"password too short", domain.ErrPasswordTooShort, http.StatusBadRequest, domain.ErrPasswordTooShort.Error(), ""},
		{"password too long", domain.ErrPasswordTooLong, http.StatusBadRequest, domain.ErrPasswordTooLong.Error(), ""},
		{"malformed hash", domain.ErrMalformedHash, http.StatusInternalServerError, "internal server error", ""},
		{"unexpected", errors.New("redis timeout while talking to node 3"), http.StatusInternalServerError, "internal server error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := render(t, tc.err)
			if status != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, status)
			}
			if body["error"] != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, body["error"])
			}
			if body["code"] != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, body["code"])
			}
		})
	}
}

func TestErrorHandler_WrappedErrors(t *testing.T) {
	wrapped := echo.NewHTTPError(http.StatusNotFound, "route not found")
	status, body := render(t, wrapped)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["error"] != "route not found" {
		t.Fatalf("unexpected message: %q", body["error"])
	}
}

func TestErrorHandler_DoesNotLeakInternals(t *testing.T) {
	_, body := render(t, errors.New("dial tcp 10.0.0.5:27017: connection refused"))
	if body["error"] != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body["error"])
	}
}
