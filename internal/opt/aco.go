package opt

import (
	"context"
	"math"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/rng"
)

// AntColonyConfig configures the ant colony optimizer. The continuous search
// space is discretized per variable into pheromone bins.
type AntColonyConfig struct {
	Dimensions int // >= 1
	Ants       int // >= 2
	Iterations int // >= 0

	Evaporation float64 // in (0, 1)
	Alpha       float64 // pheromone exponent
	Beta        float64 // heuristic exponent
	Bins        int     // bins per variable, >= 2

	// Min/Max bound the decoded variable values.
	Min, Max float64

	Seed int64
	Rand rng.Source

	Workers        int
	MaxEvaluations int
	Progress       func(IterationStats)
}

// DefaultAntColonyConfig returns the canonical configuration for the given
// dimensionality.
func DefaultAntColonyConfig(dims int) AntColonyConfig {
	return AntColonyConfig{
		Dimensions:  dims,
		Ants:        25,
		Iterations:  100,
		Evaporation: 0.1,
		Alpha:       1.0,
		Beta:        2.0,
		Bins:        20,
		Min:         -1,
		Max:         1,
	}
}

func (c AntColonyConfig) validate() error {
	if c.Dimensions < 1 {
		return &ConfigError{Field: "dimensions", Reason: "must be >= 1"}
	}
	if c.Ants < 2 {
		return &ConfigError{Field: "ants", Reason: "must be >= 2"}
	}
	if c.Iterations < 0 {
		return &ConfigError{Field: "iterations", Reason: "must be >= 0"}
	}
	if c.Evaporation <= 0 || c.Evaporation >= 1 {
		return &ConfigError{Field: "evaporation", Reason: "must be in (0, 1)"}
	}
	if c.Bins < 2 {
		return &ConfigError{Field: "bins", Reason: "must be >= 2"}
	}
	if c.Max <= c.Min {
		return &ConfigError{Field: "max", Reason: "must be greater than min"}
	}
	return nil
}

// AntColony optimizes over a per-variable discretization: ants construct
// solutions by roulette sampling over pheromone trails, trails evaporate each
// iteration, and ants with positive fitness deposit onto the bins they chose.
type AntColony struct {
	cfg AntColonyConfig
}

// NewAntColony validates the configuration and returns the optimizer.
// Configurations are taken literally; start from DefaultAntColonyConfig for
// the documented defaults.
func NewAntColony(cfg AntColonyConfig) (*AntColony, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &AntColony{cfg: cfg}, nil
}

func (a *AntColony) Name() string { return "aco" }

// Run executes the full optimization. Solution construction draws from the
// orchestrating goroutine's random source; only fitness evaluation fans out
// to workers, so fixed-seed runs stay deterministic in both modes.
func (a *AntColony) Run(ctx context.Context, fn objective.Func) (*Result, error) {
	cfg := a.cfg
	src := cfg.Rand
	if src == nil {
		src = rng.New(cfg.Seed)
	}

	pheromones := make([][]float64, cfg.Dimensions)
	heuristic := make([][]float64, cfg.Dimensions)
	for d := range pheromones {
		pheromones[d] = make([]float64, cfg.Bins)
		heuristic[d] = make([]float64, cfg.Bins)
		for b := 0; b < cfg.Bins; b++ {
			pheromones[d][b] = 1
			heuristic[d][b] = 1
		}
	}

	solutions := make([][]float64, cfg.Ants)
	bins := make([][]int, cfg.Ants)
	for i := range solutions {
		solutions[i] = make([]float64, cfg.Dimensions)
		bins[i] = make([]int, cfg.Dimensions)
	}
	fits := make([]float64, cfg.Ants)

	res := &Result{BestFitness: math.Inf(-1)}

	for iter := 0; iter < cfg.Iterations; iter++ {
		select {
		case <-ctx.Done():
			a.finish(res, solutions, fits)
			return res, ctx.Err()
		default:
		}
		if cfg.MaxEvaluations > 0 && res.Evaluations+cfg.Ants > cfg.MaxEvaluations {
			break
		}

		for i := range solutions {
			a.construct(src, pheromones, heuristic, solutions[i], bins[i])
		}

		if err := evaluate(ctx, fn, solutions, fits, cfg.Workers); err != nil {
			return nil, err
		}
		res.Evaluations += cfg.Ants
		res.Iterations = iter + 1

		for i, fit := range fits {
			if fit > res.BestFitness {
				res.BestFitness = fit
				res.BestVector = cloneVector(solutions[i])
			}
		}

		for d := range pheromones {
			for b := range pheromones[d] {
				pheromones[d][b] *= 1 - cfg.Evaporation
			}
		}
		// Only positive-fitness ants reinforce their trail.
		for i, fit := range fits {
			if fit <= 0 {
				continue
			}
			for d, b := range bins[i] {
				pheromones[d][b] += fit
			}
		}

		stats := IterationStats{Iteration: iter, BestFitness: res.BestFitness, MeanFitness: mean(fits)}
		res.History = append(res.History, stats)
		if cfg.Progress != nil {
			stats.BestVector = cloneVector(res.BestVector)
			cfg.Progress(stats)
		}
	}

	a.finish(res, solutions, fits)
	return res, nil
}

// construct fills one ant's solution, roulette-sampling a bin per variable
// with probability proportional to pheromone^alpha * heuristic^beta, then
// decoding the bin index to its value in [Min, Max].
func (a *AntColony) construct(src rng.Source, pheromones, heuristic [][]float64, solution []float64, chosen []int) {
	cfg := a.cfg
	for d := 0; d < cfg.Dimensions; d++ {
		var total float64
		weights := make([]float64, cfg.Bins)
		for b := 0; b < cfg.Bins; b++ {
			w := math.Pow(pheromones[d][b], cfg.Alpha) * math.Pow(heuristic[d][b], cfg.Beta)
			weights[b] = w
			total += w
		}

		r := src.Float64() * total
		idx := cfg.Bins - 1
		for b, w := range weights {
			r -= w
			if r < 0 {
				idx = b
				break
			}
		}

		chosen[d] = idx
		solution[d] = cfg.Min + (cfg.Max-cfg.Min)*float64(idx)/float64(cfg.Bins)
	}
}

func (a *AntColony) finish(res *Result, solutions [][]float64, fits []float64) {
	res.Final = make([]Candidate, len(solutions))
	for i := range solutions {
		res.Final[i] = Candidate{Vector: cloneVector(solutions[i]), Fitness: fits[i]}
	}
}
