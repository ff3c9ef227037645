package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pagesim/services/simulator-svc/internal/service"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		in     inputFlags
		format string
		out    string
		title  string
		opts   service.ExportRequest
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a simulation report to a file",
		Long: `Write a simulation report in one of: text, csv, markdown, json, html, excel, pdf.
The file is named page-fault-simulation-<ALGO>-<id>.<ext> unless --out names a file.`,
		Example: `  pagesim export -e basic -a LRU --format pdf --comparison
  pagesim export -r "1,2,3,4,1,2,5" -f 3 --format excel --out report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := buildComponents(a.cfg, nil)
			defer c.Close(cmd.Context())

			sim := in.request(a.cfg.Simulation.DefaultFrames)
			opts.Simulation = &sim
			opts.Format = format
			opts.Title = title

			rep, err := c.service.ExportReport(cmd.Context(), opts)
			if err != nil {
				return err
			}

			path, err := reportPath(out, a.cfg.Report.OutputDir, rep.FileName)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, rep.Content, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"id":     rep.ID,
					"format": rep.Format,
					"path":   path,
					"size":   len(rep.Content),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %s written to %s (%d bytes)\n", rep.ID, path, len(rep.Content))
			return nil
		},
	}
	in.bind(cmd)

	fl := cmd.Flags()
	fl.StringVar(&format, "format", "", "Report format (default from config)")
	fl.StringVar(&out, "out", "", "Output file or directory (default: report.output_dir)")
	fl.StringVar(&title, "title", "", "Report title")
	fl.BoolVar(&opts.IncludeComparison, "comparison", false, "Include the comparison of all algorithms")
	fl.BoolVar(&opts.IncludeSweep, "sweep", false, "Include the capacity sweep")
	fl.BoolVar(&opts.IncludeAnalysis, "analysis", false, "Ask the explainer for an analysis against Optimal")

	return cmd
}

// reportPath out может быть файлом или каталогом; пустой out - каталог из конфигурации
func reportPath(out, defaultDir, fileName string) (string, error) {
	if out == "" {
		out = defaultDir
	}
	if out == "" {
		out = "."
	}

	info, err := os.Stat(out)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(out, fileName), nil
	case err == nil || os.IsNotExist(err):
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create report directory: %w", err)
			}
		}
		return out, nil
	default:
		return "", err
	}
}
