package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-board/internal/handler"
	"github.com/iliyamo/task-board/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth,
// protected endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication; a refresh token in the
	// body (or a bearer header) identifies the session(s) to terminate.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := protected(e, jwtSecret)
	auth.GET("/me", a.Me)
}

// RegisterBoard registers project and ticket routes. Everything here
// requires a valid access token; board reads are never cached so the
// convergence refetch always observes server truth.
func RegisterBoard(e *echo.Echo, p *handler.ProjectHandler, t *handler.TicketHandler, jwtSecret string) {
	auth := protected(e, jwtSecret)

	auth.POST("/projects", p.CreateProject)
	auth.GET("/projects", p.ListProjects)
	auth.GET("/projects/:id", p.GetProject)
	auth.PATCH("/projects/:id", p.UpdateProject)
	auth.DELETE("/projects/:id", p.DeleteProject)

	auth.GET("/projects/:id/board", t.GetBoard)
	auth.POST("/projects/:id/tickets", t.CreateTicket)
	auth.PATCH("/tickets/:id", t.UpdateTicket)
	auth.DELETE("/tickets/:id", t.DeleteTicket)
	auth.POST("/tickets/:id/move", t.MoveTicket)
}

// RegisterDirectory registers the unauthenticated project directory. The
// cache middleware sits only here: directory entries change rarely and carry
// no ordering state.
func RegisterDirectory(e *echo.Echo, p *handler.ProjectHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/directory/projects", p.Directory, cache)
		return
	}
	e.GET("/v1/directory/projects", p.Directory)
}

// protected returns a /v1 group guarded by JWT auth and the role check.
// Both MEMBER and ADMIN may use every board endpoint; the middleware still
// rejects missing or unknown roles.
func protected(e *echo.Echo, jwtSecret string) *echo.Group {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("MEMBER", "ADMIN"))
	return g
}
