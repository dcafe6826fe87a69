package app

import (
	"github.com/glotbridge/glotbridge-backend/internal/http"
	httpH "github.com/glotbridge/glotbridge-backend/internal/http/handlers"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Project  *httpH.ProjectHandler
	Content  *httpH.ContentHandler
	Revision *httpH.RevisionHandler
	Resolve  *httpH.ResolveHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Project:  httpH.NewProjectHandler(log, services.Project),
		Content:  httpH.NewContentHandler(log, services.Content),
		Revision: httpH.NewRevisionHandler(log, services.Revision),
		Resolve:  httpH.NewResolveHandler(log, services.Resolver, services.Content),
	}
}

func wireServer(log *logger.Logger, handlers Handlers) *http.Server {
	return http.NewServer(log, http.RouterConfig{
		Log:             log,
		HealthHandler:   handlers.Health,
		ProjectHandler:  handlers.Project,
		ContentHandler:  handlers.Content,
		RevisionHandler: handlers.Revision,
		ResolveHandler:  handlers.Resolve,
	})
}
