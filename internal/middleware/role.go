package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds one of the given roles. It assumes JWTAuth already placed a
// model.Role under the "role" context key; a missing or unexpected value
// is treated as forbidden.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(model.Role)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
