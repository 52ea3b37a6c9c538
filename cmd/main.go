package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/filatrack-backend/internal/clients/redis"
	"github.com/yungbote/filatrack-backend/internal/config"
	"github.com/yungbote/filatrack-backend/internal/db"
	"github.com/yungbote/filatrack-backend/internal/handlers"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/middleware"
	"github.com/yungbote/filatrack-backend/internal/observability"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/server"
	"github.com/yungbote/filatrack-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "filatrack-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	var shortIDCache redis.ShortIDCache
	if cfg.RedisAddr != "" {
		shortIDCache, err = redis.NewShortIDCache(log, cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis init failed, short id lookups will skip the cache", "error", err)
			shortIDCache = nil
		} else {
			defer shortIDCache.Close()
		}
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	accountRepo := repos.NewAccountRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	boxRepo := repos.NewBoxRepo(thePG, log)
	filamentRepo := repos.NewFilamentRepo(thePG, log)
	filamentLogRepo := repos.NewFilamentLogRepo(thePG, log)
	printRepo := repos.NewPrintRepo(thePG, log)
	analyticsRepo := repos.NewAnalyticsRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	orderingService := services.NewOrderingService(log, boxRepo, filamentRepo)
	analyticsService := services.NewAnalyticsService(thePG, log, analyticsRepo, userRepo, filamentRepo, filamentLogRepo, boxRepo, accountRepo)
	authService := services.NewAuthService(thePG, log, userRepo, accountRepo, userTokenRepo, analyticsService, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := services.NewUserService(thePG, log, userRepo, accountRepo, userTokenRepo, boxRepo, filamentRepo, filamentLogRepo, printRepo)
	boxService := services.NewBoxService(thePG, log, userRepo, boxRepo, filamentRepo, orderingService, analyticsService)
	filamentService := services.NewFilamentService(thePG, log, userRepo, filamentRepo, filamentLogRepo, boxRepo, orderingService, analyticsService, shortIDCache)
	printService := services.NewPrintService(thePG, log, printRepo, filamentRepo, filamentLogRepo, analyticsService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	boxHandler := handlers.NewBoxHandler(boxService)
	filamentHandler := handlers.NewFilamentHandler(filamentService)
	printHandler := handlers.NewPrintHandler(printService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		CORSOrigins:      cfg.CORSOrigins,
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		UserHandler:      userHandler,
		BoxHandler:       boxHandler,
		FilamentHandler:  filamentHandler,
		PrintHandler:     printHandler,
		AnalyticsHandler: analyticsHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
