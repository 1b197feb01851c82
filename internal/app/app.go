package app

import (
	"fmt"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tvnz/video-generator/cmd/server/docs" // swagger docs
	generationhttp "github.com/tvnz/video-generator/internal/adapter/inbound/http/generation"
	"github.com/tvnz/video-generator/internal/infra/config"
	"github.com/tvnz/video-generator/internal/shared/logger"
	"github.com/tvnz/video-generator/internal/utils/middleware"
)

// Application is the interface served by cmd/server.
type Application interface {
	Router() *gin.Engine
	Stop()
}

var _ Application = (*App)(nil)

// App represents the application.
type App struct {
	config    *config.Config
	deps      *Dependencies
	cleanup   func()
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}

	app := &App{
		config:    cfg,
		deps:      deps,
		cleanup:   cleanup,
		logger:    deps.Logger,
		zapLogger: deps.ZapLogger,
	}

	router, err := app.setupRouter()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("setup router: %w", err)
	}
	app.router = router

	app.zapLogger.Info("Application initialized",
		zap.String("upload_dir", cfg.Upload.Dir),
		zap.Int64("max_upload_bytes", cfg.Upload.MaxBytes),
		zap.Bool("runway_configured", cfg.Runway.APIToken != ""),
	)

	return app, nil
}

// Router returns the Gin router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources.
func (a *App) Stop() {
	a.zapLogger.Info("Application stopping")
	if a.cleanup != nil {
		a.cleanup()
	}
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() (*gin.Engine, error) {
	// Set Gin mode based on environment
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = a.config.Upload.MaxBytes

	tmpl, err := generationhttp.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	if a.config.Metrics.Enabled {
		r.Use(middleware.Metrics(a.deps.Metrics))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = a.config.CORS.AllowOrigins
	r.Use(middleware.CORS(corsCfg))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{a.config.Metrics.Path})))
	r.Use(middleware.BodyLimit(a.config.Upload.MaxBytes))

	if a.config.Metrics.Enabled {
		r.GET(a.config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(a.deps.Registry, promhttp.HandlerOpts{
			Registry: a.deps.Registry,
		})))
	}

	// Swagger documentation endpoint
	if a.config.Server.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	a.deps.GenerationHandler.RegisterRoutes(r)

	return r, nil
}
