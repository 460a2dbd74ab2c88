package app

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"

	"gallery-service/internal/config"
	"gallery-service/internal/gateway"
	"gallery-service/internal/http"
	"gallery-service/pkg/tracing"
)

// Service is the running gallery gateway
type Service struct {
	config          *config.Config
	gateway         *gateway.Service
	server          *http.Server
	shutdownTracing tracing.ShutdownFunc
}

// Start serves HTTP until Shutdown is called.
func (s *Service) Start() error {
	log.Printf("Starting HTTP server on %s (storage provider: %s)", s.config.Server.Addr(), s.config.Storage.Provider)
	if err := s.server.Start(s.config.Server.Addr()); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and flushes pending spans.
func (s *Service) Shutdown(ctx context.Context) error {
	return errors.Join(
		s.server.Shutdown(ctx),
		s.shutdownTracing(ctx),
	)
}

// Gateway returns the storage gateway the server fronts.
func (s *Service) Gateway() *gateway.Service {
	return s.gateway
}
