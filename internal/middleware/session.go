// Package middleware provides shared request processing: session-based
// authentication, admin gating and rate limiting.
package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
)

// Context keys under which RequireLogin stores the resolved session.
const (
	ClaimsKey    = "claims"
	SessionIDKey = "session_id"
)

// RequireLogin resolves the session cookie against the store and injects
// the claims into the request context. Requests without a valid, logged-in
// session are rejected with 401. Handlers read the identity via
// c.Get(middleware.ClaimsKey).
func RequireLogin(store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			claims, err := store.Get(c.Request().Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "session lookup failed"})
			}
			if !claims.IsLogin {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			c.Set(ClaimsKey, claims)
			c.Set(SessionIDKey, cookie.Value)
			return next(c)
		}
	}
}

// RequireAdmin rejects authenticated requests whose session lacks the
// admin flag. It assumes RequireLogin ran earlier in the chain.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(session.Claims)
			if !ok || !claims.IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "not admin"})
			}
			return next(c)
		}
	}
}
