package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

// Server wraps the gin engine in a net/http server so the process can
// drain in-flight requests on shutdown.
type Server struct {
	Engine *gin.Engine

	log *logger.Logger

	mu  sync.Mutex
	srv *http.Server
}

func NewServer(log *logger.Logger, cfg RouterConfig) *Server {
	return &Server{
		Engine: NewRouter(cfg),
		log:    log.With("component", "httpstack"),
	}
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	s.log.Info("HTTP server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
