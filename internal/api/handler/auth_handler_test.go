package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/task-tracker/internal/api"
	"github.com/taskhub/task-tracker/internal/api/handler"
	"github.com/taskhub/task-tracker/internal/api/middleware"
	"github.com/taskhub/task-tracker/internal/core/domain"
	"github.com/taskhub/task-tracker/internal/core/ports"
)

type stubAuthService struct {
	loginErr          error
	refreshErr        error
	changePasswordErr error
	loggedOut         []string
}

func (s *stubAuthService) Login(_ context.Context, username, _ string) (*ports.LoginResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &ports.LoginResult{
		Tokens: domain.TokenPair{AccessToken: "access-tok", RefreshToken: "refresh-tok"},
		User:   domain.Profile{ID: 1, Username: username},
	}, nil
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*domain.TokenPair, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return &domain.TokenPair{AccessToken: "access-tok-2", RefreshToken: "refresh-tok-2"}, nil
}

func (s *stubAuthService) Logout(_ context.Context, token string) {
	s.loggedOut = append(s.loggedOut, token)
}

func (s *stubAuthService) ChangePassword(_ context.Context, _ int64, _, _ string) error {
	return s.changePasswordErr
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrInvalidCredentials
}

func newTestServer(stub *stubAuthService) *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())

	h := handler.NewAuthHandler(stub, handler.CookieOptions{
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})

	// Injects an authenticated user the way the real gate does.
	asUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := &domain.User{ID: 1, Username: "alice", IsActive: true}
			c.Set(middleware.UserKey, user)
			c.Set(middleware.UserIDKey, user.ID)
			return next(c)
		}
	}

	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me, asUser)
	e.POST("/auth/change-password", h.ChangePassword, asUser)
	return e
}

func doJSON(e *echo.Echo, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginHandler_Success(t *testing.T) {
	e := newTestServer(&stubAuthService{})

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw123456"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken  string         `json:"access_token"`
		RefreshToken string         `json:"refresh_token"`
		User         domain.Profile `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken != "access-tok" || resp.RefreshToken != "refresh-tok" {
		t.Fatalf("unexpected tokens: %+v", resp)
	}
	if resp.User.Username != "alice" {
		t.Fatalf("expected profile in response, got %+v", resp.User)
	}

	access := cookieByName(rec, middleware.AccessTokenCookie)
	refresh := cookieByName(rec, "refresh_token")
	if access == nil || refresh == nil {
		t.Fatalf("expected both auth cookies")
	}
	if !access.HttpOnly || !refresh.HttpOnly {
		t.Fatalf("auth cookies must be httpOnly")
	}
	if access.Value != "access-tok" || refresh.Value != "refresh-tok" {
		t.Fatalf("cookie values mismatch")
	}
}

func TestLoginHandler_MissingFields(t *testing.T) {
	e := newTestServer(&stubAuthService{})

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"username":"alice"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	e := newTestServer(&stubAuthService{loginErr: domain.ErrInvalidCredentials})

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "invalid credentials" {
		t.Fatalf("expected uniform error body, got %q", resp["error"])
	}
	if resp["code"] != "" {
		t.Fatalf("login failures must not carry a code, got %q", resp["code"])
	}
}

func TestRefreshHandler_FromBody(t *testing.T) {
	e := newTestServer(&stubAuthService{})

	rec := doJSON(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"refresh-tok"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cookieByName(rec, "refresh_token") == nil {
		t.Fatalf("refresh must rotate the cookie")
	}
}

func TestRefreshHandler_FromCookie(t *testing.T) {
	e := newTestServer(&stubAuthService{})

	rec := doJSON(e, http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh-tok"})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshHandler_Expired(t *testing.T) {
	e := newTestServer(&stubAuthService{refreshErr: domain.ErrSessionExpired})

	rec := doJSON(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"stale"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["code"] != "session_expired" {
		t.Fatalf("expected machine-readable session_expired code, got %q", resp["code"])
	}
}

func TestRefreshHandler_NoToken(t *testing.T) {
	e := newTestServer(&stubAuthService{})

	rec := doJSON(e, http.MethodPost, "/auth/refresh", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutHandler_AlwaysSucceeds(t *testing.T) {
	stub := &stubAuthService{}
	e := newTestServer(stub)

	// With a token, without a token, and again: always 200.
	for _, body := range []string{`{"refresh_token":"refresh-tok"}`, "", `{"refresh_token":"refresh-tok"}`} {
		rec := doJSON(e, http.MethodPost, "/auth/logout", body, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("logout must always return 200, got %d", rec.Code)
		}
		access := cookieByName(rec, middleware.AccessTokenCookie)
		if access == nil || access.MaxAge >= 0 || access.Value != "" {
			t.Fatalf("logout must clear the access cookie: %+v", access)
		}
	}

	if len(stub.loggedOut) != 2 {
		t.Fatalf("expected 2 revocation calls, got %d", len(stub.loggedOut))
	}
}

func TestChangePasswordHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e := newTestServer(&stubAuthService{})
		rec := doJSON(e, http.MethodPost, "/auth/change-password",
			`{"current_password":"oldpw1234","new_password":"newpw1234"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		e := newTestServer(&stubAuthService{})
		rec := doJSON(e, http.MethodPost, "/auth/change-password", `{"current_password":"oldpw1234"}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("too short", func(t *testing.T) {
		e := newTestServer(&stubAuthService{changePasswordErr: domain.ErrPasswordTooShort})
		rec := doJSON(e, http.MethodPost, "/auth/change-password",
			`{"current_password":"oldpw1234","new_password":"short"}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("wrong current password", func(t *testing.T) {
		e := newTestServer(&stubAuthService{changePasswordErr: domain.ErrInvalidCredentials})
		rec := doJSON(e, http.MethodPost, "/auth/change-password",
			`{"current_password":"wrongpw12","new_password":"newpw1234"}`, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestMeHandler(t *testing.T) {
	e := newTestServer(&stubAuthService{})

	rec := doJSON(e, http.MethodGet, "/auth/me", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var profile domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ID != 1 || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
