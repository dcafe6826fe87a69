package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/glotbridge/glotbridge-backend/internal/http/handlers"
	httpMW "github.com/glotbridge/glotbridge-backend/internal/http/middleware"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler   *httpH.HealthHandler
	ProjectHandler  *httpH.ProjectHandler
	ContentHandler  *httpH.ContentHandler
	RevisionHandler *httpH.RevisionHandler
	ResolveHandler  *httpH.ResolveHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("glotbridge-backend"))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ProjectHandler != nil {
			api.POST("/projects", cfg.ProjectHandler.Create)
			api.GET("/projects/:id", cfg.ProjectHandler.Get)
			api.PUT("/projects/:id/fallbacks", cfg.ProjectHandler.SetFallbacks)
			api.GET("/projects/:id/fallbacks", cfg.ProjectHandler.GetFallbacks)
		}

		if cfg.ContentHandler != nil {
			api.POST("/content", cfg.ContentHandler.Submit)
			api.GET("/content/:id", cfg.ContentHandler.Get)
			api.DELETE("/content/:id", cfg.ContentHandler.Delete)
			api.GET("/heads/:id/revisions", cfg.ContentHandler.ListRevisions)
		}

		if cfg.RevisionHandler != nil {
			api.POST("/revisions/:id/publish", cfg.RevisionHandler.Publish)
			api.POST("/revisions/:id/unpublish", cfg.RevisionHandler.Unpublish)
			api.POST("/revisions/:id/reject", cfg.RevisionHandler.Reject)
		}

		if cfg.ResolveHandler != nil {
			api.GET("/resolve", cfg.ResolveHandler.Resolve)
		}
	}

	return r
}
