// Package opt implements the population-based optimizers: a genetic
// algorithm, particle swarm optimization, ant colony optimization, and an
// adapter over the external mayfly library. All of them maximize a
// caller-supplied objective and share one result contract so a benchmark
// harness can treat them polymorphically.
package opt

import (
	"context"

	"github.com/cwbudde/bioopt/internal/objective"
)

// Optimizer defines an optimization algorithm.
type Optimizer interface {
	// Name identifies the algorithm ("genetic", "pso", "aco", "mayfly").
	Name() string

	// Run executes the optimization to completion and returns the best
	// solution found. The objective is maximized.
	//
	// Cancellation is cooperative: ctx is checked at every iteration
	// boundary, never mid-generation, and on cancellation Run returns the
	// best result found so far together with ctx.Err(). An objective error
	// aborts the run with a nil result and an *EvalError.
	Run(ctx context.Context, fn objective.Func) (*Result, error)
}

// Candidate is one member of a final population or swarm, kept on the result
// for inspection and testing.
type Candidate struct {
	Vector  []float64 `json:"vector"`
	Fitness float64   `json:"fitness"`
}

// Particle is the swarm-specific per-member state snapshot.
type Particle struct {
	Position     []float64 `json:"position"`
	Velocity     []float64 `json:"velocity"`
	BestPosition []float64 `json:"bestPosition"`
	BestFitness  float64   `json:"bestFitness"`
}

// IterationStats records fitness statistics for one generation or iteration.
type IterationStats struct {
	Iteration   int     `json:"iteration"`
	BestFitness float64 `json:"bestFitness"`
	MeanFitness float64 `json:"meanFitness"`

	// BestVector is a snapshot of the best solution observed so far across
	// the whole run, so progress consumers can checkpoint a resumable state.
	// Not retained in Result.History.
	BestVector []float64 `json:"bestVector,omitempty"`
}

// Result is the uniform output of every optimizer invocation. It is created
// once per run and must not be mutated after return.
type Result struct {
	// BestVector and BestFitness describe the best solution ever observed
	// across all iterations, tracked independently of the population so that
	// non-elitist replacement cannot lose it.
	BestVector  []float64 `json:"bestVector"`
	BestFitness float64   `json:"bestFitness"`

	// Final holds the last evaluated population or swarm positions.
	Final []Candidate `json:"final,omitempty"`

	// Swarm holds full per-particle state; set only by the swarm optimizer.
	Swarm []Particle `json:"swarm,omitempty"`

	// Evaluations counts objective calls made during the run.
	Evaluations int `json:"evaluations"`

	// Iterations counts completed generations/iterations.
	Iterations int `json:"iterations"`

	// History records per-iteration fitness statistics in order.
	History []IterationStats `json:"history,omitempty"`
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
