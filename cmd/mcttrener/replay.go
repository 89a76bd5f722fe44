package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toradrage/mct-trener/internal/eval"
	"github.com/toradrage/mct-trener/internal/replay"
)

// #region replay

type fixtureRun struct {
	path       string
	fixture    *replay.Fixture
	summary    replay.ReplaySummary
	mismatches []string
}

func newReplayCmd(a *app) *cobra.Command {
	var parallel int
	var verbose bool
	cmd := &cobra.Command{
		Use:   "replay FIXTURE...",
		Short: "Replay scripted sessions and check their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleCfg, err := a.rules()
			if err != nil {
				return err
			}
			config := replay.ReplayConfig{Rules: ruleCfg, EvalConfig: eval.DefaultEvalConfig()}

			runs := make([]fixtureRun, len(args))
			if parallel < 1 {
				parallel = 1
			}
			var g errgroup.Group
			g.SetLimit(parallel)
			for i, path := range args {
				g.Go(func() error {
					f, err := replay.LoadFixture(path)
					if err != nil {
						return err
					}
					results := replay.Replay(f.StartState(), f.Difficulty, f.Steps, config)
					runs[i] = fixtureRun{
						path:       path,
						fixture:    f,
						summary:    replay.Summarize(results),
						mismatches: f.Mismatches(results),
					}
					if verbose {
						for _, r := range results {
							a.log.Debug("replay step",
								zap.String("fixture", path),
								zap.String("turn", r.TurnID),
								zap.String("action", r.Action),
								zap.String("phase", string(r.Phase)),
								zap.Float64("cas", r.CAS),
							)
						}
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range runs {
				s := r.summary
				status := "ok"
				if len(r.mismatches) > 0 {
					status = "FAIL"
					failed++
				}
				fmt.Fprintf(out, "%-4s %s (%s)\n", status, r.path, r.fixture.Description)
				fmt.Fprintf(out, "     steps=%d commits=%d rollbacks=%d rejected=%d backfires=%d penalties=%d credited=%d\n",
					s.TotalSteps, s.Commits, s.EvalRollbacks, s.Rejected, s.Backfires, s.Penalties, s.Credited)
				fmt.Fprintf(out, "     final CAS %.1f · engagement %.1f\n", s.FinalCAS, s.FinalEngagement)
				for _, m := range r.mismatches {
					fmt.Fprintf(out, "     - %s\n", m)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d fixtures failed", failed, len(runs))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&parallel, "parallel", 4, "fixtures replayed at once")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every step at debug level")
	return cmd
}

// #endregion replay
