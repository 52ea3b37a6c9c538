package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/filatrack-backend/internal/handlers"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/middleware"
)

type RouterConfig struct {
	Log              *logger.Logger
	CORSOrigins      []string
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	UserHandler      *handlers.UserHandler
	BoxHandler       *handlers.BoxHandler
	FilamentHandler  *handlers.FilamentHandler
	PrintHandler     *handlers.PrintHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("filatrack-backend"))
	router.Use(middleware.RequestLog(cfg.Log))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PATCH("/user", cfg.UserHandler.EditMe)
	protected.DELETE("/user", cfg.UserHandler.DeleteMe)
	// Boxes
	protected.GET("/boxes", cfg.BoxHandler.GetAll)
	protected.POST("/boxes", cfg.BoxHandler.Create)
	protected.POST("/boxes/reorder", cfg.BoxHandler.Reorder)
	protected.GET("/boxes/:id", cfg.BoxHandler.Get)
	protected.PATCH("/boxes/:id", cfg.BoxHandler.Edit)
	protected.DELETE("/boxes/:id", cfg.BoxHandler.Delete)
	protected.POST("/boxes/:id/filament", cfg.BoxHandler.AddFilament)
	protected.DELETE("/boxes/:id/filament", cfg.BoxHandler.RemoveFilament)
	// Filament
	protected.GET("/filament", cfg.FilamentHandler.GetAll)
	protected.GET("/filament/scope", cfg.FilamentHandler.GetByBox)
	protected.POST("/filament", cfg.FilamentHandler.Create)
	protected.POST("/filament/reorder", cfg.FilamentHandler.Reorder)
	protected.GET("/filament/short/:shortId", cfg.FilamentHandler.GetByShortID)
	protected.GET("/filament/:id", cfg.FilamentHandler.Get)
	protected.PATCH("/filament/:id", cfg.FilamentHandler.Edit)
	protected.DELETE("/filament/:id", cfg.FilamentHandler.Delete)
	protected.POST("/filament/:id/logs", cfg.FilamentHandler.LogUsage)
	protected.GET("/filament/:id/logs", cfg.FilamentHandler.GetLogs)
	// Prints
	protected.GET("/prints", cfg.PrintHandler.GetAll)
	protected.POST("/prints", cfg.PrintHandler.Create)
	protected.DELETE("/prints/:id", cfg.PrintHandler.Delete)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/analytics")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	admin.GET("/entry", cfg.AnalyticsHandler.GetEntry)
	admin.GET("/range", cfg.AnalyticsHandler.GetRange)
	admin.GET("/totals", cfg.AnalyticsHandler.GetTotals)
	admin.GET("/auth-methods", cfg.AnalyticsHandler.GetAuthMethodStats)

	return router
}
