package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"pagesim/pkg/config"
	"pagesim/pkg/logger"
	"pagesim/pkg/metrics"
	"pagesim/pkg/telemetry"
)

const defaultShutdownTimeout = 30 * time.Second

// ShutdownHook вызывается после остановки приёма запросов
type ShutdownHook func(ctx context.Context) error

// HTTPServer обёртка над http.Server с graceful shutdown
type HTTPServer struct {
	server      *http.Server
	serviceName string
	config      *config.Config
	telemetry   *telemetry.Provider

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
	hooks []ShutdownHook
}

// New создаёт сервер. HTTP/2 без TLS (h2c) включён для клиентов, которые его поддерживают.
func New(cfg *config.Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
		},
		serviceName: cfg.App.Name,
		config:      cfg,
		ready:       make(chan struct{}),
	}
}

// OnShutdown регистрирует хук остановки. Хуки вызываются в обратном порядке.
func (s *HTTPServer) OnShutdown(hook ShutdownHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Ready закрывается, когда сервер начал слушать порт
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr адрес, на котором слушает сервер; nil до Ready
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run запускает сервер и ждёт SIGINT/SIGTERM
func (s *HTTPServer) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return s.RunContext(ctx)
}

// RunContext запускает сервер до отмены ctx
func (s *HTTPServer) RunContext(ctx context.Context) error {
	if s.config.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.FromConfig(s.config))
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			s.telemetry = tp
			logger.Log.Info("Telemetry initialized",
				"endpoint", s.config.Tracing.Endpoint,
				"sample_rate", s.config.Tracing.SampleRate,
			)
		}
	}

	// Используем ListenConfig с контекстом вместо net.Listen
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.config.HTTP.Address())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.addr = lis.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)

	go func() {
		logger.Log.Info("Starting HTTP server",
			"service", s.serviceName,
			"address", lis.Addr().String(),
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if m := metrics.Get(); m != nil {
		m.SetServiceInfo(s.config.App.Version, s.config.App.Environment)
	}
	close(s.ready)

	return s.waitForShutdown(ctx, errCh)
}

func (s *HTTPServer) waitForShutdown(ctx context.Context, errCh chan error) error {
	var serveErr error
	select {
	case serveErr = <-errCh:
		logger.Log.Error("HTTP server failed", "error", serveErr)
	case <-ctx.Done():
		logger.Log.Info("Received shutdown signal", "reason", context.Cause(ctx))
	}

	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warn("Forcing server stop", "error", err)
		_ = s.server.Close()
	} else {
		logger.Log.Info("Server stopped gracefully")
	}

	s.mu.Lock()
	hooks := append([]ShutdownHook(nil), s.hooks...)
	s.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](shutdownCtx); err != nil {
			logger.Log.Warn("Shutdown hook failed", "error", err)
		}
	}

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("Failed to shutdown telemetry", "error", err)
		}
	}

	return serveErr
}
