package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-tracker/internal/api/metrics"
	"github.com/taskhub/task-tracker/internal/core/domain"
	"github.com/taskhub/task-tracker/internal/core/ports"
)

// AccessTokenCookie is the cookie the browser client keeps the access token
// in; API clients send a bearer header instead. Both transports are accepted.
const AccessTokenCookie = "access_token"

// Context keys populated for downstream handlers.
const (
	UserKey   = "user"
	UserIDKey = "user_id"
)

// Auth gates protected routes: it extracts the access token, resolves it to
// an active user through the auth service, and injects the user into the
// request context. Every failure is the same 401; no business logic runs
// after a rejected token.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractAccessToken(c)
			if token == "" {
				metrics.AuthChecksTotal.WithLabelValues("denied").Inc()
				return domain.ErrInvalidCredentials
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				metrics.AuthChecksTotal.WithLabelValues("denied").Inc()
				return err
			}

			metrics.AuthChecksTotal.WithLabelValues("allowed").Inc()
			c.Set(UserKey, user)
			c.Set(UserIDKey, user.ID)

			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user injected by Auth.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(UserKey).(*domain.User)
	return user, ok
}

func extractAccessToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	cookie, err := c.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
