package opt

import (
	"context"
	"math"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/rng"
)

// MayflyConfig configures the adapter over the external mayfly library.
type MayflyConfig struct {
	Dimensions int // >= 1
	Population int // the library requires >= 20
	Iterations int // >= 0

	// Min/Max bound the search space uniformly across dimensions (the
	// library takes scalar bounds).
	Min, Max float64

	Seed int64
}

// DefaultMayflyConfig returns the canonical configuration for the given
// dimensionality.
func DefaultMayflyConfig(dims int) MayflyConfig {
	return MayflyConfig{
		Dimensions: dims,
		Population: 30,
		Iterations: 100,
		Min:        -5,
		Max:        5,
	}
}

func (c MayflyConfig) validate() error {
	if c.Dimensions < 1 {
		return &ConfigError{Field: "dimensions", Reason: "must be >= 1"}
	}
	if c.Population < 20 {
		return &ConfigError{Field: "population", Reason: "must be >= 20 for the mayfly library"}
	}
	if c.Iterations < 0 {
		return &ConfigError{Field: "iterations", Reason: "must be >= 0"}
	}
	if c.Max <= c.Min {
		return &ConfigError{Field: "max", Reason: "must be greater than min"}
	}
	return nil
}

// MayflyAdapter wraps the external mayfly optimizer behind the shared
// Optimizer contract. The library minimizes a cost, so fitness is negated on
// the way in and the resulting cost negated on the way out.
type MayflyAdapter struct {
	cfg MayflyConfig
}

// NewMayfly validates the configuration and returns the adapter.
// Configurations are taken literally; start from DefaultMayflyConfig for the
// documented defaults.
func NewMayfly(cfg MayflyConfig) (*MayflyAdapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &MayflyAdapter{cfg: cfg}, nil
}

func (m *MayflyAdapter) Name() string { return "mayfly" }

// Run executes the library optimizer to completion. The library runs
// synchronously without suspension points, so ctx is honored only at entry.
func (m *MayflyAdapter) Run(ctx context.Context, fn objective.Func) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := m.cfg
	evals := 0
	var evalErr error

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		evals++
		fit, err := fn(x)
		if err != nil {
			if evalErr == nil {
				evalErr = &EvalError{Member: evals - 1, Err: err}
			}
			return math.Inf(1)
		}
		return -fit
	}
	config.ProblemSize = cfg.Dimensions
	config.MaxIterations = cfg.Iterations
	config.NPop = cfg.Population
	config.LowerBound = cfg.Min
	config.UpperBound = cfg.Max
	config.Rand = rng.New(cfg.Seed)

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, err
	}
	if evalErr != nil {
		return nil, evalErr
	}

	return &Result{
		BestVector:  result.GlobalBest.Position,
		BestFitness: -result.GlobalBest.Cost,
		Evaluations: evals,
		Iterations:  cfg.Iterations,
	}, nil
}
