// Package http assembles the gin route tree and the server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/geometax/internal/interfaces/http/handlers"
	"github.com/turtacn/geometax/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies of the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Mode string // gin mode: "debug" | "release" | "test"

	Annotations *handlers.AnnotationHandler
	Jobs        *handlers.JobHandler
	Reference   *handlers.ReferenceHandler
	Health      *handlers.HealthHandler

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.AppMetrics
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Liveness)
		r.GET("/readyz", cfg.Health.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.Annotations != nil {
			api.GET("/annotations", cfg.Annotations.List)
			api.GET("/annotations/:sample", cfg.Annotations.Get)
			api.DELETE("/annotations/:sample", cfg.Annotations.Delete)
			api.GET("/search", cfg.Annotations.Search)
		}
		if cfg.Jobs != nil {
			api.POST("/jobs", cfg.Jobs.Submit)
			api.GET("/jobs", cfg.Jobs.List)
			api.GET("/jobs/:id", cfg.Jobs.Get)
		}
		if cfg.Reference != nil {
			api.GET("/reference/status", cfg.Reference.Status)
			api.POST("/reference/rebuild", cfg.Reference.Rebuild)
		}
	}

	return r
}

var _ http.Handler = (*gin.Engine)(nil)
