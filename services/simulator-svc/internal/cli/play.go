package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pagesim/services/simulator-svc/internal/service"
	"pagesim/services/simulator-svc/internal/trace"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		in    inputFlags
		speed int
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Replay a simulation step by step in the terminal",
		Long: `Replay a simulation with the auto-advance driver.
The delay between steps is 4000 - speed milliseconds, clamped to the configured speed range.`,
		Example: `  pagesim play -e basic --speed 3000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := buildComponents(a.cfg, nil)
			defer c.Close(cmd.Context())

			ctx := cmd.Context()
			req := in.request(a.cfg.Simulation.DefaultFrames)

			// та же трасса, что и у сессии: построение детерминировано
			result, err := c.service.Simulate(ctx, req)
			if err != nil {
				return err
			}
			view, err := c.service.CreateSession(ctx, req)
			if err != nil {
				return err
			}
			defer func() { _ = c.service.DeleteSession(context.WithoutCancel(ctx), view.ID) }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %d frames, %d steps\n", result.Algorithm, result.FrameCount, result.Len())
			printStep(out, result.Steps[view.Cursor])

			view, err = c.service.Play(ctx, view.ID, speed)
			if err != nil {
				return err
			}

			return follow(ctx, out, c.service, result, view)
		},
	}
	in.bind(cmd)
	cmd.Flags().IntVar(&speed, "speed", 0, "Playback speed (default from config)")

	return cmd
}

// follow печатает шаги по мере продвижения курсора, пока проигрывание не остановится
func follow(ctx context.Context, w io.Writer, svc *service.SimulatorService, result *trace.SimulationResult, view service.SessionView) error {
	poll := time.Duration(view.IntervalMs) * time.Millisecond / 2
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	last := view.Cursor
	for view.Playing {
		select {
		case <-ctx.Done():
			_, err := svc.Pause(context.WithoutCancel(ctx), view.ID)
			fmt.Fprintln(w, "Playback interrupted")
			return err
		case <-ticker.C:
		}

		var err error
		view, err = svc.GetSession(ctx, view.ID)
		if err != nil {
			return err
		}
		for ; last < view.Cursor; last++ {
			printStep(w, result.Steps[last+1])
		}
	}

	fmt.Fprintf(w, "Done: %d faults, %d hits (%.2f%% hit rate)\n",
		result.TotalFaults, result.TotalHits, result.HitRate()*100)
	return nil
}

func printStep(w io.Writer, s trace.StepRecord) {
	fmt.Fprintf(w, "Step %d: Access page %d - %s  %s\n", s.StepNumber, s.Page, s.Outcome(), s.FramesAfter)
}
