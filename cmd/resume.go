package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/opt"
	"github.com/cwbudde/bioopt/internal/rng"
	"github.com/cwbudde/bioopt/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir string
	resumeIters   int
	resumeWorkers int
	resumeSeed    int64
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume optimization from a checkpoint",
	Long: `Loads a saved checkpoint and continues the search with a fresh
population seeded from the checkpoint's best solution. The resumed run can
only match or improve the stored best fitness. The job's trace file is
appended to.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Additional iterations (0 = checkpoint's configured count)")
	resumeCmd.Flags().IntVar(&resumeWorkers, "workers", 0, "Parallel evaluation workers (0 = checkpoint's setting)")
	resumeCmd.Flags().Int64Var(&resumeSeed, "seed", 0, "Random seed (0 = derive from checkpoint)")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	cp, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no checkpoint for job %s", jobID)
		}
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := cp.Validate(); err != nil {
		return fmt.Errorf("checkpoint for job %s is unusable: %w", jobID, err)
	}

	cfg := cp.Config
	if resumeIters > 0 {
		cfg.Iterations = resumeIters
	}
	if resumeWorkers > 0 {
		cfg.Workers = resumeWorkers
	}
	if err := cp.IsCompatible(cfg); err != nil {
		return err
	}

	// A fresh stream per resume keeps the continued search from replaying the
	// random draws the original run already consumed.
	seed := resumeSeed
	if seed == 0 {
		seed = rng.Derive(cfg.Seed, uint64(cp.Iteration)+1)
	}

	fn, err := objective.Lookup(cfg.Objective)
	if err != nil {
		return err
	}
	fn = objective.Dimensioned(fn, cfg.Dimensions)

	trace, err := store.NewTraceWriter(resumeDataDir, jobID, true)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer trace.Close()

	optimizer, err := opt.New(opt.Spec{
		Algorithm:     cfg.Algorithm,
		Dimensions:    cfg.Dimensions,
		Population:    cfg.Population,
		Iterations:    cfg.Iterations,
		MutationRate:  cfg.MutationRate,
		CrossoverRate: cfg.CrossoverRate,
		Inertia:       cfg.Inertia,
		Cognitive:     cfg.Cognitive,
		Social:        cfg.Social,
		Seed:          seed,
		Workers:       cfg.Workers,
		InitialBest:   cp.BestVector,
		Progress: func(stats opt.IterationStats) {
			entry := store.TraceEntry{
				Iteration:   cp.Iteration + stats.Iteration + 1,
				BestFitness: stats.BestFitness,
				MeanFitness: stats.MeanFitness,
				Timestamp:   time.Now(),
			}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "error", err)
			}
		},
	})
	if err != nil {
		return err
	}

	slog.Info("Resuming job",
		"job_id", jobID,
		"algorithm", cfg.Algorithm,
		"objective", cfg.Objective,
		"from_iteration", cp.Iteration,
		"checkpoint_best", cp.BestFitness,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := optimizer.Run(ctx, fn)
	elapsed := time.Since(start)

	if err != nil {
		if !errors.Is(err, ctx.Err()) || result == nil {
			return err
		}
		fmt.Println("Interrupted, saving best found so far.")
	}

	if err := trace.Flush(); err != nil {
		slog.Warn("Failed to flush trace", "error", err)
	}

	// The new population was seeded with the stored best, so the result can
	// only match or beat the checkpoint, unless it was interrupted before the
	// first evaluation.
	bestVector, bestFitness := result.BestVector, result.BestFitness
	if len(bestVector) == 0 || bestFitness < cp.BestFitness {
		bestVector, bestFitness = cp.BestVector, cp.BestFitness
	}
	next := store.NewCheckpoint(jobID, bestVector, bestFitness, cp.Iteration+result.Iterations, cfg)
	if err := checkpointStore.SaveCheckpoint(jobID, next); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Resume complete",
		"job_id", jobID,
		"elapsed", elapsed,
		"iterations", result.Iterations,
		"best_fitness", bestFitness,
		"improvement", bestFitness-cp.BestFitness,
	)

	fmt.Printf("Best fitness: %.6f (was %.6f, +%d iterations in %s)\n",
		bestFitness, cp.BestFitness, result.Iterations, elapsed.Round(time.Millisecond))
	return nil
}
