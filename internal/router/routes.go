package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadscout/api/internal/auth"
	"github.com/leadscout/api/internal/config"
	"github.com/leadscout/api/internal/handler"
	middlewarepkg "github.com/leadscout/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserAdminHandler
	Generate *handler.GenerateHandler
	Profile  *handler.ProfileHandler
	History  *handler.HistoryHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	secured.POST("/auth/logout", handlers.Auth.Logout)

	secured.POST("/generate", handlers.Generate.Generate, middlewarepkg.PathRateLimiter("/generate", cfg.RateLimitGenerate))
	secured.GET("/generate/progress", handlers.Generate.Progress)
	secured.POST("/generate/reset", handlers.Generate.Reset)

	secured.GET("/profile", handlers.Profile.Latest)
	secured.GET("/history", handlers.History.List)

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
}
