package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/BooraVinay/AlgoTradeEngine/internal/config"
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewServer builds the router and binds it to the configured address.
func NewServer(cfg config.ServerConfig, h *Handler, reg *SessionRegistry, logger zerolog.Logger) *Server {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(h, reg, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: timeout,
		logger:          logger.With().Str("component", "server").Logger(),
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("shutting down http server")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
