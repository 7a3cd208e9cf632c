package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/demandprep/pkg/config"
	"github.com/wonny/demandprep/pkg/logger"
)

// Server serves the preprocessing API until its context ends
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	grace      time.Duration
	logger     *logger.Logger
}

// New creates a server listening on cfg.Port
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	grace := cfg.API.ShutdownTimeout
	if grace <= 0 {
		grace = 30 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: cfg.API.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		grace: grace,
		logger: log.WithFields(map[string]interface{}{
			"port":    cfg.Port,
			"backend": cfg.StoreBackend,
		}),
	}
}

// Run listens on the configured address; see Serve
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is done, then drains in-flight
// requests for at most the shutdown timeout
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("Starting API server")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-errCh
	return nil
}
