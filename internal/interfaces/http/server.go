package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/turtacn/geometax/internal/config"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

// Server wraps http.Server with the platform's lifecycle conventions.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

// NewServer creates a Server for the given handler.
func NewServer(cfg config.ServerConfig, handler http.Handler, log logging.Logger) *Server {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Server{
		logger: log,
		srv: &http.Server{
			Addr:         ":" + strconv.Itoa(cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  2 * time.Minute,
		},
	}
}

// Start serves until Shutdown is called.  A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
