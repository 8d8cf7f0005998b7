package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/handler"
	"github.com/Spectrumgrid/grade-pilot/internal/middleware"
	"github.com/Spectrumgrid/grade-pilot/internal/response"
)

// artifactMaxAge is how long clients may cache immutable session artifacts.
const artifactMaxAge = 24 * time.Hour

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Grading *handler.GradingHandler
	Session *handler.SessionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background goroutines of the middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	root := router.Group(cfg.RootPath)

	// Workbooks and PDFs are already compressed.
	root.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality: middleware.DefaultBrotliConfig.Quality,
		Skipper: middleware.SkipPathPrefixes(
			cfg.RootPath+"/api/v1/download/",
			cfg.RootPath+"/api/v1/export-report/",
		),
	}))

	// Health check.
	root.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := root.Group("/api/v1")

	// ─── 1. Uploads (Rate Limited) ─────────────────────────────────────
	uploadLimiter := middleware.NewRateLimiter(ctx, cfg.GradeRateLimit, time.Minute)
	uploads := api.Group("")
	uploads.Use(uploadLimiter.Middleware())
	{
		uploads.POST("/grade", handlers.Grading.Grade)
		uploads.POST("/validate", handlers.Grading.Validate)
	}

	// ─── 2. Session Artifacts (Immutable) ──────────────────────────────
	sessions := api.Group("")
	sessions.Use(middleware.CacheControl(artifactMaxAge))
	{
		sessions.GET("/preview/:session_id", handlers.Session.Preview)
		sessions.GET("/metrics/:session_id", handlers.Session.Metrics)
		sessions.GET("/download/:session_id", handlers.Session.Download)
		sessions.GET("/export-report/:session_id", handlers.Session.ExportReport)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
