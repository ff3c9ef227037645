package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagesim/pkg/logger"
	"pagesim/pkg/metrics"
	"pagesim/pkg/ratelimit"
	"pagesim/pkg/server"
	"pagesim/services/simulator-svc/internal/handlers"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if port != 0 {
				cfg.HTTP.Port = port
			}
			if a.flags.logLevel != "" {
				cfg.Log.Level = a.flags.logLevel
			}

			// =================================================================
			// Логгер
			// =================================================================

			logger.InitWithConfig(logger.Config{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				Output:     cfg.Log.Output,
				FilePath:   cfg.Log.FilePath,
				MaxSize:    cfg.Log.MaxSize,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAge,
				Compress:   cfg.Log.Compress,
			})

			logger.Log.Info("Starting Simulator Service",
				"version", cfg.App.Version,
				"environment", cfg.App.Environment,
			)

			// =================================================================
			// Метрики
			// =================================================================

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
				logger.Log.Info("Metrics enabled", "path", cfg.Metrics.Path)
			}

			// =================================================================
			// Сервис и HTTP
			// =================================================================

			c := buildComponents(cfg, m)
			h := handlers.New(c.service, cfg, m)

			if rl := cfg.Explainer.RateLimit; rl.Enabled {
				limiter, err := ratelimit.New(ratelimit.FromConfig(rl, cfg.Cache))
				if err != nil {
					_ = c.Close(cmd.Context())
					return fmt.Errorf("init rate limiter: %w", err)
				}
				h.WithLimiter(limiter)
				logger.Log.Info("Explanation rate limit enabled",
					"requests", rl.Requests,
					"window", rl.Window,
					"backend", rl.Backend,
				)
				defer limiter.Close()
			}

			srv := server.New(cfg, h.Routes())
			srv.OnShutdown(c.Close)

			err := srv.RunContext(cmd.Context())
			_ = logger.Close()
			return err
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (default from config)")

	return cmd
}
