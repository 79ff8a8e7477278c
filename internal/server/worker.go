package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/opt"
	"github.com/cwbudde/bioopt/internal/store"
)

// runJob executes an optimization job in the background.
// If checkpointStore is not nil and the job has checkpointInterval > 0,
// periodic checkpoints are saved. traceDir, when non-empty, receives a
// per-iteration trace file for the job.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, traceDir, jobID string) error {
	defer jm.ReleaseCancel(jobID)

	// Get the job
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Update state to running
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job",
		"job_id", jobID,
		"algorithm", job.Config.Algorithm,
		"objective", job.Config.Objective,
		"dimensions", job.Config.Dimensions,
	)

	// Resolve the objective function
	fn, err := objective.Lookup(job.Config.Objective)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	fn = objective.Dimensioned(fn, job.Config.Dimensions)

	// Open the trace writer if a trace directory is configured
	var trace *store.TraceWriter
	if traceDir != "" {
		trace, err = store.NewTraceWriter(traceDir, jobID, false)
		if err != nil {
			markJobFailed(jm, jobID, fmt.Errorf("failed to open trace: %w", err))
			return err
		}
		defer trace.Close()
	}

	// Build the optimizer. The progress callback runs on the optimizer's
	// goroutine between iterations, so it only touches the job via UpdateJob.
	optimizer, err := opt.New(opt.Spec{
		Algorithm:     job.Config.Algorithm,
		Dimensions:    job.Config.Dimensions,
		Population:    job.Config.Population,
		Iterations:    job.Config.Iterations,
		MutationRate:  job.Config.MutationRate,
		CrossoverRate: job.Config.CrossoverRate,
		Inertia:       job.Config.Inertia,
		Cognitive:     job.Config.Cognitive,
		Social:        job.Config.Social,
		Seed:          job.Config.Seed,
		Workers:       job.Config.Workers,
		Progress: func(stats opt.IterationStats) {
			jm.UpdateJob(jobID, func(j *Job) {
				j.Iterations = stats.Iteration + 1
				j.MeanFitness = stats.MeanFitness
				// stats.BestFitness may be per-iteration; the job tracks the
				// running best, matching the BestVector snapshot.
				if len(j.BestVector) == 0 || stats.BestFitness > j.BestFitness {
					j.BestFitness = stats.BestFitness
				}
				if len(stats.BestVector) > 0 {
					j.BestVector = stats.BestVector
				}
			})
			if trace != nil {
				entry := store.TraceEntry{
					Iteration:   stats.Iteration,
					BestFitness: stats.BestFitness,
					MeanFitness: stats.MeanFitness,
					Timestamp:   time.Now(),
				}
				if err := trace.Write(entry); err != nil {
					slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
				}
			}
		},
	})
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Check for cancellation before starting expensive operation
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	start := time.Now()

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	// Start checkpoint monitoring goroutine if enabled. The channel stays nil
	// when checkpointing is off so there is nothing to close twice.
	var checkpointDone chan struct{}
	if checkpointStore != nil && job.Config.CheckpointInterval > 0 {
		checkpointDone = make(chan struct{})
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, checkpointDone)
	}

	result, runErr := optimizer.Run(ctx, fn)

	close(progressDone)
	if checkpointDone != nil {
		close(checkpointDone)
	}
	elapsed := time.Since(start)

	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			// Cancellation still yields the best-so-far result
			if result != nil {
				jm.UpdateJob(jobID, func(j *Job) {
					j.BestVector = result.BestVector
					j.BestFitness = result.BestFitness
					j.Iterations = result.Iterations
					j.Evaluations = result.Evaluations
				})
			}
			markJobCancelled(jm, jobID)
			return runErr
		}
		markJobFailed(jm, jobID, runErr)
		return runErr
	}

	// Update job with results
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestVector = result.BestVector
		j.BestFitness = result.BestFitness
		j.Iterations = result.Iterations
		j.Evaluations = result.Evaluations
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	eps := float64(result.Evaluations) / elapsed.Seconds()

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"best_fitness", result.BestFitness,
		"evaluations", result.Evaluations,
		"evals_per_second", eps,
	)

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Iterations:  result.Iterations,
		BestFitness: result.BestFitness,
		Evaluations: result.Evaluations,
		Timestamp:   time.Now(),
	})

	return nil
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Get current job state
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			// Broadcast progress event
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:       jobID,
				State:       job.State,
				Iterations:  job.Iterations,
				BestFitness: job.BestFitness,
				MeanFitness: job.MeanFitness,
				Timestamp:   time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves checkpoints during optimization
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, done chan struct{}) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}

	interval := time.Duration(job.Config.CheckpointInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Save checkpoint
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveCheckpoint saves a checkpoint for the given job
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	// Get current job state
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Skip if no best vector yet
	if len(job.BestVector) == 0 {
		slog.Debug("Skipping checkpoint, no best vector yet", "job_id", jobID)
		return nil
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		job.BestVector,
		job.BestFitness,
		job.Iterations,
		job.Config,
	)

	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"iteration", job.Iterations,
		"best_fitness", job.BestFitness,
	)

	return nil
}
