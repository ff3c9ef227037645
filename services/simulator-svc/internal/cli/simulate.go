package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pagesim/services/simulator-svc/internal/report"
	"pagesim/services/simulator-svc/internal/service"
	"pagesim/services/simulator-svc/internal/trace"
)

// inputFlags входные данные прогона
type inputFlags struct {
	algorithm string
	refs      string
	frames    int
	example   string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.algorithm, "algorithm", "a", "", "Algorithm: FIFO, LRU, MRU, Optimal, SecondChance (default from config)")
	fl.StringVarP(&f.refs, "refs", "r", "", `Reference string, e.g. "7,0,1,2,0,3"`)
	fl.IntVarP(&f.frames, "frames", "f", 0, "Number of frames (default from config or example)")
	fl.StringVarP(&f.example, "example", "e", "", "Use a preset, see `pagesim examples`")
}

func (f *inputFlags) request(defaultFrames int) service.SimulateRequest {
	req := service.SimulateRequest{
		Algorithm:       f.algorithm,
		ReferenceString: f.refs,
		Frames:          f.frames,
		Example:         f.example,
	}
	// пресет сам задаёт число кадров
	if req.Frames == 0 && req.Example == "" {
		req.Frames = defaultFrames
	}
	return req
}

// ==================== run ====================

func newRunCmd(a *app) *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one algorithm and print the step-by-step trace",
		Example: `  pagesim run -a LRU -r "7,0,1,2,0,3,0,4,2,3,0,3,2" -f 3
  pagesim run -e belady4 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := buildComponents(a.cfg, nil)
			defer c.Close(cmd.Context())

			result, err := c.service.Simulate(cmd.Context(), in.request(a.cfg.Simulation.DefaultFrames))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return writeJSON(out, map[string]any{
					"summary": result.Summary(),
					"result":  result,
				})
			}

			gen, err := report.New(report.FormatText, a.cfg.Report)
			if err != nil {
				return err
			}
			text, err := gen.Generate(cmd.Context(), report.NewData(result, report.OptionsFromConfig(a.cfg.Report)))
			if err != nil {
				return err
			}
			_, err = out.Write(text)
			return err
		},
	}
	in.bind(cmd)

	return cmd
}

// ==================== compare ====================

func newCompareCmd(a *app) *cobra.Command {
	var (
		in         inputFlags
		algorithms []string
	)

	cmd := &cobra.Command{
		Use:     "compare",
		Short:   "Rank algorithms by page faults on the same input",
		Example: `  pagesim compare -e basic --algorithms FIFO,LRU,Optimal`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := buildComponents(a.cfg, nil)
			defer c.Close(cmd.Context())

			cmp, err := c.service.Compare(cmd.Context(), service.CompareRequest{
				SimulateRequest: in.request(a.cfg.Simulation.DefaultFrames),
				Algorithms:      algorithms,
			})
			if err != nil {
				return err
			}

			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			return printComparison(cmd.OutOrStdout(), cmp)
		},
	}
	in.bind(cmd)
	cmd.Flags().StringSliceVar(&algorithms, "algorithms", nil, "Algorithms to compare (default: all)")

	return cmd
}

func printComparison(w io.Writer, cmp *trace.Comparison) error {
	fmt.Fprintf(w, "Reference String: %s\n", trace.FormatReferenceString(cmp.ReferenceSequence))
	fmt.Fprintf(w, "Number of Frames: %d\n\n", cmp.FrameCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tALGORITHM\tFAULTS\tHITS\tHIT RATE\tVS OPTIMAL")
	for _, e := range cmp.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f%%\t+%d\n",
			e.Rank, e.Algorithm, e.Faults, e.Hits, e.HitRate*100, e.GapToOptimal)
	}
	return tw.Flush()
}

// ==================== sweep ====================

func newSweepCmd(a *app) *cobra.Command {
	var (
		in       inputFlags
		minFrame int
		maxFrame int
	)

	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Run one algorithm over a range of frame counts and report Belady anomalies",
		Example: `  pagesim sweep -a FIFO -r "1,2,3,4,1,2,5,1,2,3,4,5" --min 1 --max 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := buildComponents(a.cfg, nil)
			defer c.Close(cmd.Context())

			req := in.request(0)
			sweep, err := c.service.Sweep(cmd.Context(), service.SweepRequest{
				SimulateRequest: req,
				MinFrames:       minFrame,
				MaxFrames:       maxFrame,
			})
			if err != nil {
				return err
			}

			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), sweep)
			}
			return printSweep(cmd.OutOrStdout(), sweep)
		},
	}
	in.bind(cmd)
	cmd.Flags().IntVar(&minFrame, "min", 0, "Smallest frame count (default from config)")
	cmd.Flags().IntVar(&maxFrame, "max", 0, "Largest frame count (default from config)")

	return cmd
}

func printSweep(w io.Writer, s *trace.Sweep) error {
	fmt.Fprintf(w, "Algorithm: %s\n", s.Algorithm)
	fmt.Fprintf(w, "Reference String: %s\n\n", trace.FormatReferenceString(s.ReferenceSequence))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAMES\tFAULTS\tHIT RATE")
	for _, p := range s.Points {
		fmt.Fprintf(tw, "%d\t%d\t%.2f%%\n", p.Frames, p.Faults, p.HitRate*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !s.HasAnomaly() {
		fmt.Fprintln(w, "\nNo Belady anomaly in this range.")
		return nil
	}

	lines := make([]string, len(s.Anomalies))
	for i, an := range s.Anomalies {
		lines[i] = fmt.Sprintf("  %d -> %d frames: %d -> %d faults",
			an.FromFrames, an.ToFrames, an.FromFaults, an.ToFaults)
	}
	fmt.Fprintf(w, "\nBelady anomaly detected:\n%s\n", strings.Join(lines, "\n"))
	return nil
}
