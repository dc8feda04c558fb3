package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/grammarheroes/backend/internal/http/handlers"
	httpMW "github.com/grammarheroes/backend/internal/http/middleware"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AuthMiddleware *httpMW.AuthMiddleware

	PlayerHandler     *httpH.PlayerHandler
	AdventureHandler  *httpH.AdventureHandler
	SubmissionHandler *httpH.SubmissionHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.CORS())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Player
		if cfg.PlayerHandler != nil {
			protected.GET("/me", cfg.PlayerHandler.GetMe)
			protected.PATCH("/me", cfg.PlayerHandler.UpdateProfile)
			protected.POST("/me/display-name", cfg.PlayerHandler.SetDisplayName)
			protected.GET("/display-name/availability", cfg.PlayerHandler.CheckDisplayName)
			protected.GET("/me/mastery", cfg.PlayerHandler.GetMastery)
			protected.GET("/bootstrap", cfg.PlayerHandler.Bootstrap)
		}

		// Adventures
		if cfg.AdventureHandler != nil {
			protected.POST("/adventures", cfg.AdventureHandler.Start)
			protected.GET("/adventures/active", cfg.AdventureHandler.GetActive)
			protected.PATCH("/adventures/active", cfg.AdventureHandler.Progress)
			protected.POST("/adventures/finish", cfg.AdventureHandler.Finish)
			protected.GET("/adventures/history", cfg.AdventureHandler.History)
			protected.GET("/adventures/:id/summary", cfg.AdventureHandler.GetSummary)
			protected.GET("/adventures/:id/stats", cfg.AdventureHandler.GetStats)
		}

		// Submissions
		if cfg.SubmissionHandler != nil {
			protected.POST("/submissions", cfg.SubmissionHandler.Submit)
		}
	}

	return r
}
