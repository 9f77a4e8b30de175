package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mreyes/confluence/pkg/config"
	"github.com/mreyes/confluence/pkg/logger"
)

// Server hosts the signal API: the tiered-result endpoints, the
// blacklist and actor admin surface, and the /ws summary stream.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config
}

// New wraps the router in an http.Server with conservative timeouts.
// The write timeout does not apply to /ws: the websocket upgrade
// hijacks the connection and the hub enforces its own write deadline.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: log,
		config: cfg,
	}
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("Signal API listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve signal api: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests within the context's deadline.
// Websocket clients are closed separately through the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down signal API")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown signal api: %w", err)
	}

	return nil
}
