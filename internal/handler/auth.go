package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/auth"
	"github.com/avetisk/civic-voice/internal/config"
	"github.com/avetisk/civic-voice/internal/repository"
)

// RefreshCookieName is the cookie carrying the refresh token. The cookie
// is HTTP-only, Secure and SameSite=Strict, scoped to the auth routes so
// the browser never sends the long-lived token to ordinary API calls.
const RefreshCookieName = "refresh_token"

// refreshCookiePath scopes the cookie to the auth group.
const refreshCookiePath = "/v1/auth"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *auth.Service
}

func NewAuthHandler(cfg config.Config, svc *auth.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: svc}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	Expires     time.Time `json:"expires"`
	UserID      uint64    `json:"user_id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
}
type refreshResp struct {
	AccessToken string    `json:"access_token"`
	Expires     time.Time `json:"expires"`
}

// Register creates a new citizen account. No tokens are issued here; the
// client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     string(u.Role),
	})
}

// Login verifies credentials and returns an access token; the rotating
// refresh token travels only in the protected cookie. Every rejection is
// the same opaque 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	h.setRefreshCookie(c, pair.Refresh.Raw, pair.Refresh.Exp)
	return c.JSON(http.StatusOK, loginResp{
		AccessToken: pair.Access.Token,
		Expires:     pair.Access.Exp,
		UserID:      u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
	})
}

// Refresh exchanges the cookie-borne refresh token for a new pair. The old
// token is dead the moment this succeeds (rotation); on rejection the
// cookie is cleared so the browser stops presenting a token that can
// never work again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(RefreshCookieName); err == nil {
		presented = ck.Value
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, pair, err := h.Auth.Refresh(ctx, presented)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefresh) {
			h.clearRefreshCookie(c)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	h.setRefreshCookie(c, pair.Refresh.Raw, pair.Refresh.Exp)
	return c.JSON(http.StatusOK, refreshResp{
		AccessToken: pair.Access.Token,
		Expires:     pair.Access.Exp,
	})
}

// Logout clears the refresh cookie and best-effort invalidates the stored
// token. It always succeeds from the client's point of view.
func (h *AuthHandler) Logout(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(RefreshCookieName); err == nil {
		presented = ck.Value
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.Auth.Logout(ctx, presented)
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity straight from the access token claims;
// nothing is looked up server-side.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  c.Get("user_id"),
		"username": c.Get("username"),
		"role":     c.Get("role"),
	})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    raw,
		Path:     refreshCookiePath,
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
