package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/leadscout/api/internal/auth"
	"github.com/leadscout/api/internal/config"
	"github.com/leadscout/api/internal/database"
	"github.com/leadscout/api/internal/extract"
	"github.com/leadscout/api/internal/gemini"
	"github.com/leadscout/api/internal/handler"
	middlewarepkg "github.com/leadscout/api/internal/middleware"
	"github.com/leadscout/api/internal/repository"
	"github.com/leadscout/api/internal/router"
	"github.com/leadscout/api/internal/service"
	"github.com/leadscout/api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	generator, err := gemini.New(ctx, gemini.Config{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		MaxLeads: cfg.MaxLeadCount,
	})
	if err != nil {
		log.Fatalf("failed to create gemini client: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	profilesRepo := repository.NewPGXProfilesRepository(pool)
	leadsRepo := repository.NewPGXLeadsRepository(pool)

	historyService := service.NewHistoryService(profilesRepo, leadsRepo)

	bus := session.NewBus()
	sessions := session.NewManager(bus, historyService)
	defer sessions.Close()

	authService := service.NewAuthService(usersRepo, jwtManager, bus)
	userService := service.NewUserService(usersRepo)

	sanitizer := service.NewLeadSanitizer(cfg.DefaultPhoneRegion)
	extractor := extract.NewPDFExtractor()
	workflows := service.NewWorkflowRegistry(func(userID uuid.UUID) *service.Workflow {
		return service.NewWorkflow(userID, service.WorkflowDeps{
			Generator: generator,
			Extractor: extractor,
			Sanitizer: sanitizer,
			Store:     historyService,
			Sessions:  sessions,
		})
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Users:    handler.NewUserAdminHandler(userService),
		Generate: handler.NewGenerateHandler(workflows),
		Profile:  handler.NewProfileHandler(sessions),
		History:  handler.NewHistoryHandler(sessions),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
