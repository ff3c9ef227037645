// Package cli implements the pagesim command line: one-shot simulations,
// comparisons, capacity sweeps, report export, terminal playback and the
// HTTP server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pagesim/pkg/config"
	"pagesim/pkg/logger"
)

const serviceName = "simulator-svc"

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
)

// globalFlags флаги корневой команды
type globalFlags struct {
	configPath string
	logLevel   string
	output     string
}

// app состояние, общее для команд одного запуска
type app struct {
	flags globalFlags
	cfg   *config.Config
}

// NewRootCmd собирает дерево команд
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pagesim",
		Short:         "Page replacement simulator",
		Long:          "Simulates FIFO, LRU, MRU, Optimal and Second-Chance page replacement step by step.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or config.yaml)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVarP(&a.flags.output, "output", "o", outputText, "Output format: text or json")

	root.AddCommand(
		newRunCmd(a),
		newCompareCmd(a),
		newSweepCmd(a),
		newExportCmd(a),
		newPlayCmd(a),
		newAlgorithmsCmd(a),
		newExamplesCmd(a),
		newCacheCmd(a),
		newServeCmd(a),
	)

	return root
}

// Execute запускает CLI; SIGINT/SIGTERM отменяют контекст команды
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) init(cmd *cobra.Command) error {
	if a.flags.output != outputText && a.flags.output != outputJSON {
		return fmt.Errorf("unknown output format %q", a.flags.output)
	}

	cfg, err := loadConfig(a.flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	// serve настраивает логгер по конфигурации, остальные команды пишут в stderr
	if cmd.Name() != "serve" {
		level := a.flags.logLevel
		if level == "" {
			level = "warn"
		}
		logger.InitWithWriter(cmd.ErrOrStderr(), level, "text")
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadWithServiceDefaults(serviceName, 0)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return config.NewLoader(config.WithConfigPaths(path)).Load()
}

func (a *app) jsonOutput() bool {
	return a.flags.output == outputJSON
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
