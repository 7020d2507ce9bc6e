package middleware // reusable HTTP middleware for the API

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-planner/internal/utils"
)

// ContextUserID is the echo.Context key under which JWTAuth stores
// the authenticated user's id (uint64).
const ContextUserID = "user_id"

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the owner's id, email and role into the request
// context. Refresh tokens are rejected here: only type=access passes.
// Expired and malformed tokens both answer 401, with distinct
// messages so clients know when to attempt a refresh.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.VerifyToken(secret, raw, utils.TokenTypeAccess)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user's id stored by JWTAuth.
// Handlers behind the middleware can rely on ok being true.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserID).(uint64)
	return v, ok
}
