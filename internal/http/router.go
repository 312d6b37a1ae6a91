package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/whatfix/ticket-analyzer/backend/internal/config"
	"github.com/whatfix/ticket-analyzer/backend/internal/db"
	"github.com/whatfix/ticket-analyzer/backend/internal/http/handlers"
	"github.com/whatfix/ticket-analyzer/backend/internal/http/middleware"
	"github.com/whatfix/ticket-analyzer/backend/internal/jobs"

	_ "github.com/whatfix/ticket-analyzer/backend/docs"
)

func Router(cfg config.Config, tracker *jobs.Tracker, store *db.Store, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Admin-Key", "X-Request-Id"},
		MaxAge:       12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Tracker:   tracker,
		Store:     store,
		Cfg:       cfg,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/analyze", h.Analyze)
		api.GET("/progress/:id", h.Progress)
		api.DELETE("/analysis/:id", h.CleanupAnalysis)
		api.GET("/analysis/:id/outreach.csv", h.OutreachCSV)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/debug/score", h.DebugScore)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
