package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/bioopt/internal/bench"
	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/opt"
	"github.com/spf13/cobra"
)

var (
	compareObjective string
	compareDims      int
	comparePop       int
	compareIters     int
	compareTrials    int
	compareSeed      int64
	compareWorkers   int
	compareMayfly    bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare algorithms on one objective",
	Long: `Runs every algorithm against the same objective with an equal
evaluation budget and ranks them by mean best fitness over repeated trials.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareObjective, "objective", "sphere", "Objective function name")
	compareCmd.Flags().IntVar(&compareDims, "dims", 10, "Problem dimensionality")
	compareCmd.Flags().IntVar(&comparePop, "pop", 30, "Population size for every algorithm")
	compareCmd.Flags().IntVar(&compareIters, "iters", 100, "Iterations for every algorithm")
	compareCmd.Flags().IntVar(&compareTrials, "trials", 5, "Independent trials per algorithm")
	compareCmd.Flags().Int64Var(&compareSeed, "seed", 42, "Base random seed")
	compareCmd.Flags().IntVar(&compareWorkers, "workers", 1, "Parallel evaluation workers")
	compareCmd.Flags().BoolVar(&compareMayfly, "mayfly", true, "Include the mayfly algorithm")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	fn, err := objective.Lookup(compareObjective)
	if err != nil {
		return err
	}
	fn = objective.Dimensioned(fn, compareDims)

	factories := bench.EqualBudgetFactories(compareDims, comparePop, compareIters, compareWorkers)
	if compareMayfly {
		if comparePop >= 20 {
			factories = append(factories, bench.Factory{
				Name: "mayfly",
				New: func(seed int64) (opt.Optimizer, error) {
					cfg := opt.DefaultMayflyConfig(compareDims)
					cfg.Population = comparePop
					cfg.Iterations = compareIters
					cfg.Seed = seed
					return opt.NewMayfly(cfg)
				},
			})
		} else {
			slog.Warn("Skipping mayfly, requires population >= 20", "pop", comparePop)
		}
	}

	slog.Info("Starting comparison",
		"objective", compareObjective,
		"dims", compareDims,
		"trials", compareTrials,
		"algorithms", len(factories),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report, err := bench.Run(ctx, fn, factories, compareTrials, compareSeed)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALGORITHM\tMEAN BEST\tSTD DEV\tMIN\tMAX\tMEAN EVALS")
	fmt.Fprintln(w, "---------\t---------\t-------\t---\t---\t----------")
	for _, s := range report.Summaries {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\t%.0f\n",
			s.Name, s.MeanBest, s.StdDev, s.MinBest, s.MaxBest, s.MeanEvaluations)
	}
	w.Flush()

	fmt.Printf("\nWinner: %s (mean best %.6f over %d trials, %s total)\n",
		report.Winner().Name, report.Winner().MeanBest, report.Trials, elapsed.Round(time.Millisecond))
	return nil
}
