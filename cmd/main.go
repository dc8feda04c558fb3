package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grammarheroes/backend/internal/app"
	redisclient "github.com/grammarheroes/backend/internal/clients/redis"
	"github.com/grammarheroes/backend/internal/clients/sapling"
	"github.com/grammarheroes/backend/internal/data/db"
	"github.com/grammarheroes/backend/internal/data/repos/adventure"
	"github.com/grammarheroes/backend/internal/data/repos/mastery"
	"github.com/grammarheroes/backend/internal/data/repos/player"
	"github.com/grammarheroes/backend/internal/data/repos/summary"
	httpServer "github.com/grammarheroes/backend/internal/http"
	httpH "github.com/grammarheroes/backend/internal/http/handlers"
	httpMW "github.com/grammarheroes/backend/internal/http/middleware"
	"github.com/grammarheroes/backend/internal/observability"
	"github.com/grammarheroes/backend/internal/platform/logger"
	"github.com/grammarheroes/backend/internal/services"
)

func main() {
	cfg := app.LoadConfig()

	// Logger
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	if shutdownOTel != nil {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis (optional: cache and guard degrade to in-process fallbacks)
	rdb, err := redisclient.NewClient(log, cfg.RedisAddr)
	if err != nil {
		log.Warn("Redis unavailable, running with in-process cache and guard", "error", err)
	}
	cacheStore := redisclient.NewCacheStore(log, rdb, nil)
	guard := redisclient.NewGuard(log, rdb, nil)

	// Repos
	log.Info("Setting up repos...")
	playerRepo := player.NewPlayerRepo(thePG, log)
	adventureRepo := adventure.NewAdventureRepo(thePG, log)
	playerMasteryRepo := mastery.NewPlayerMasteryRepo(thePG, log)
	adventureStatRepo := mastery.NewAdventureStatRepo(thePG, log)
	summaryRepo := summary.NewSummaryRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	scorer := sapling.NewClient(log, sapling.Config{
		URL:     cfg.SaplingURL,
		APIKey:  cfg.SaplingAPIKey,
		Timeout: cfg.SaplingTimeout,
	})
	grammarService := services.NewGrammarService(log, scorer, cacheStore, cfg.GrammarCacheTTL)
	sessionService := services.NewSessionService(thePG, log, playerRepo, cfg.JWTSecret, nil)
	playerService := services.NewPlayerService(thePG, log, playerRepo, adventureRepo, playerMasteryRepo, adventureStatRepo, summaryRepo)
	adventureService := services.NewAdventureService(thePG, log, playerRepo, adventureRepo, adventureStatRepo, summaryRepo, guard)
	submissionService := services.NewSubmissionService(thePG, log, grammarService, adventureRepo, playerMasteryRepo, adventureStatRepo, guard)

	// Handlers
	log.Info("Setting up handlers...")
	healthHandler := httpH.NewHealthHandler()
	playerHandler := httpH.NewPlayerHandler(playerService)
	adventureHandler := httpH.NewAdventureHandler(adventureService, playerService)
	submissionHandler := httpH.NewSubmissionHandler(submissionService)

	// Middleware
	authMiddleware := httpMW.NewAuthMiddleware(log, sessionService)

	// Router
	log.Info("Setting up router...")
	srv := httpServer.NewServer(httpServer.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		AuthMiddleware:    authMiddleware,
		PlayerHandler:     playerHandler,
		AdventureHandler:  adventureHandler,
		SubmissionHandler: submissionHandler,
		HealthHandler:     healthHandler,
	})

	log.Info("Server listening", "port", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
