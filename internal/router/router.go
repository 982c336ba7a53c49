// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/handler"
	"github.com/avetisk/civic-voice/internal/middleware"
	"github.com/avetisk/civic-voice/internal/model"
)

// RegisterRoutes registers routes that need no authentication. Currently
// that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints. Register/login/refresh/logout
// live under /v1/auth and need no access token (refresh and logout work
// off the cookie); the limiter fronts the two credential endpoints.
// /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterCivic registers the mutating entity endpoints. All of them sit
// behind JWT auth; notice publication additionally requires a moderator
// or admin role. Ownership is decided per request inside the handlers.
func RegisterCivic(e *echo.Echo, p *handler.ProposalHandler, s *handler.SuggestionHandler, cm *handler.CommentHandler, n *handler.NoticeHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.POST("/suggestions", s.Create)
	g.PUT("/suggestions/:id", s.Update)
	g.DELETE("/suggestions/:id", s.Delete)
	g.POST("/suggestions/:id/votes", s.Vote)

	g.POST("/suggestions/:id/comments", cm.Create)
	g.PUT("/comments/:id", cm.Update)
	g.DELETE("/comments/:id", cm.Delete)

	mod := middleware.RequireRole(model.RoleModerator, model.RoleAdmin)
	g.POST("/proposals", p.Create, mod)
	g.POST("/notices", n.Create, mod)
	g.DELETE("/notices/:id", n.Delete)
}
