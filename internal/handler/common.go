package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/auth"
	"github.com/avetisk/civic-voice/internal/model"
)

// currentUser extracts the authenticated user's id and role from the
// context populated by the JWT middleware.
func currentUser(c echo.Context) (uint64, model.Role, error) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return 0, "", errors.New("missing user_id in context")
	}
	role, ok := c.Get("role").(model.Role)
	if !ok {
		return 0, "", errors.New("missing role in context")
	}
	return uid, role, nil
}

// deny maps a non-allowed authorization result onto its transport status.
// Any status the engine does not define is a programming error and becomes
// a 500.
func deny(c echo.Context, res auth.AuthorizationResult) error {
	msg := res.Message
	switch res.Status {
	case auth.DeniedNotFound:
		if msg == "" {
			msg = "not found"
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
	case auth.DeniedForbidden:
		if msg == "" {
			msg = "forbidden"
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization failed"})
	}
}
