package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-tracker/internal/api/metrics"
	"github.com/taskhub/task-tracker/internal/api/middleware"
	"github.com/taskhub/task-tracker/internal/core/domain"
	"github.com/taskhub/task-tracker/internal/core/ports"
)

const refreshTokenCookie = "refresh_token"

// CookieOptions controls the httpOnly auth cookies set alongside the JSON
// token response. Browser clients rely on the cookies; API clients read the
// body and send bearer headers.
type CookieOptions struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         *domain.Profile `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login authenticates a user and returns an access+refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	start := time.Now()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.LoginDuration.Observe(time.Since(start).Seconds())

	h.setAuthCookies(c, result.Tokens)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         &result.User,
	})
}

// Refresh rotates the refresh token and returns a new pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token (falls back to cookie)"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.refreshTokenFrom(c)
	if token == "" {
		metrics.TokenRefreshesTotal.WithLabelValues("expired").Inc()
		return domain.ErrSessionExpired
	}

	pair, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrSessionExpired) {
			result = "expired"
		}
		metrics.TokenRefreshesTotal.WithLabelValues(result).Inc()
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	h.setAuthCookies(c, *pair)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the presented session and clears auth cookies. It responds
// 200 no matter what: logging out with an expired or already-revoked token
// is still logged out.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := h.refreshTokenFrom(c); token != "" {
		h.authService.Logout(c.Request().Context(), token)
	}

	metrics.LogoutsTotal.Inc()
	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "successfully logged out"})
}

// ChangePassword replaces the authenticated user's password and revokes all
// of their other sessions.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrInvalidCredentials
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		metrics.PasswordChangesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	metrics.PasswordChangesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed successfully"})
}

// Me returns the authenticated user's profile.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrInvalidCredentials
	}
	return c.JSON(http.StatusOK, user.Profile())
}

// refreshTokenFrom accepts the refresh token from the JSON body or the
// cookie, body taking precedence.
func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	var req refreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	cookie, err := c.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

func (h *AuthHandler) setAuthCookies(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, pair.AccessToken, h.cookies.AccessTTL))
	c.SetCookie(h.cookie(refreshTokenCookie, pair.RefreshToken, h.cookies.RefreshTTL))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, "", -time.Second))
	c.SetCookie(h.cookie(refreshTokenCookie, "", -time.Second))
}

func (h *AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if value == "" {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
