package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/AltairaLabs/incident-relay/internal/relay/config"
)

// This file contains the blocking listener loops. Serve is exercised by
// tests on ephemeral listeners; Run only adds the configured ports.

// Run listens on the configured HTTP and gRPC ports and serves until ctx
// is canceled.
func (s *Server) Run(ctx context.Context) error {
	listenConfig := net.ListenConfig{}

	httpLis, err := listenConfig.Listen(ctx, "tcp", ":"+s.cfg.HTTP.Port)
	if err != nil {
		return fmt.Errorf("listen http on port %s: %w", s.cfg.HTTP.Port, err)
	}
	grpcLis, err := listenConfig.Listen(ctx, "tcp", ":"+s.cfg.GRPC.Port)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen grpc on port %s: %w", s.cfg.GRPC.Port, err)
	}

	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve runs the HTTP and gRPC servers on the given listeners. When ctx is
// canceled, live sessions are closed and both servers shut down; gRPC gets
// DefaultShutdownTimeout to drain before it is stopped.
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Hijacked WebSocket connections inherit ctx, so cancellation
		// ends their sessions too.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", "address", httpLis.Addr().String())
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.Info("Starting gRPC health server", "address", grpcLis.Addr().String())
		if err := s.grpc.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down gracefully", "active_sessions", s.registry.Count())
		for _, info := range s.registry.Sessions() {
			s.logger.Info("Closing session",
				"session_id", info.ID,
				"remote_addr", info.RemoteAddr,
				"age", time.Since(info.CreatedAt).String(),
			)
		}

		s.health.Shutdown()
		s.stopGRPC()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP shutdown incomplete", "error", err)
			_ = httpServer.Close()
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("Relay shutdown complete")
	return err
}

// stopGRPC waits for GracefulStop up to DefaultShutdownTimeout, then forces it
func (s *Server) stopGRPC() {
	shutdownComplete := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		s.logger.Info("gRPC server stopped gracefully")
	case <-time.After(config.DefaultShutdownTimeout):
		s.logger.Warn("Graceful shutdown timeout, forcing stop")
		s.grpc.Stop()
		<-shutdownComplete
	}
}
