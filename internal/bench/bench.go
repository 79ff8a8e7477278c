// Package bench runs several optimizers against the same objective with
// equivalent evaluation budgets and ranks them by mean best fitness over
// repeated trials.
package bench

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/opt"
	"github.com/cwbudde/bioopt/internal/rng"
)

// Factory names an algorithm and builds a fresh optimizer for a given seed.
// Building per trial keeps trials independent: no optimizer state or random
// stream is shared between runs.
type Factory struct {
	Name string
	New  func(seed int64) (opt.Optimizer, error)
}

// Summary aggregates one algorithm's performance across all trials.
type Summary struct {
	Name            string    `json:"name"`
	MeanBest        float64   `json:"meanBest"`
	StdDev          float64   `json:"stdDev"`
	MinBest         float64   `json:"minBest"`
	MaxBest         float64   `json:"maxBest"`
	MeanEvaluations float64   `json:"meanEvaluations"`
	Fitnesses       []float64 `json:"fitnesses"`
}

// Report holds per-algorithm summaries ranked by mean best fitness,
// best first.
type Report struct {
	Trials    int       `json:"trials"`
	Summaries []Summary `json:"summaries"`
}

// Winner returns the top-ranked summary.
func (r *Report) Winner() Summary {
	return r.Summaries[0]
}

// Run executes trials runs of every factory. Trial seeds are derived from
// baseSeed with independent streams, so adding an algorithm does not perturb
// the seeds the others see.
func Run(ctx context.Context, fn objective.Func, factories []Factory, trials int, baseSeed int64) (*Report, error) {
	if len(factories) == 0 {
		return nil, fmt.Errorf("bench: no factories given")
	}
	if trials < 1 {
		return nil, fmt.Errorf("bench: trials must be >= 1, got %d", trials)
	}

	report := &Report{Trials: trials}

	for fi, factory := range factories {
		fits := make([]float64, 0, trials)
		var evals float64

		for trial := 0; trial < trials; trial++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			seed := rng.Derive(baseSeed, uint64(fi)<<32|uint64(trial))
			optimizer, err := factory.New(seed)
			if err != nil {
				return nil, fmt.Errorf("bench: building %s: %w", factory.Name, err)
			}

			result, err := optimizer.Run(ctx, fn)
			if err != nil {
				return nil, fmt.Errorf("bench: running %s: %w", factory.Name, err)
			}

			fits = append(fits, result.BestFitness)
			evals += float64(result.Evaluations)
		}

		summary := Summary{
			Name:            factory.Name,
			MeanBest:        stat.Mean(fits, nil),
			MinBest:         fits[0],
			MaxBest:         fits[0],
			MeanEvaluations: evals / float64(trials),
			Fitnesses:       fits,
		}
		if len(fits) > 1 {
			summary.StdDev = stat.StdDev(fits, nil)
		}
		for _, f := range fits {
			summary.MinBest = math.Min(summary.MinBest, f)
			summary.MaxBest = math.Max(summary.MaxBest, f)
		}
		report.Summaries = append(report.Summaries, summary)
	}

	sort.SliceStable(report.Summaries, func(i, j int) bool {
		return report.Summaries[i].MeanBest > report.Summaries[j].MeanBest
	})
	return report, nil
}

// EqualBudgetFactories builds the standard algorithm lineup where every
// optimizer gets the same total objective-evaluation budget
// (population * iterations).
func EqualBudgetFactories(dims, population, iterations, workers int) []Factory {
	return []Factory{
		{Name: "genetic", New: func(seed int64) (opt.Optimizer, error) {
			cfg := opt.DefaultGeneticConfig(dims)
			cfg.PopulationSize = population
			// The genetic optimizer also evaluates its final population, so
			// it runs one fewer generation to stay within budget.
			cfg.Generations = max(iterations-1, 0)
			cfg.Seed = seed
			cfg.Workers = workers
			return opt.NewGenetic(cfg)
		}},
		{Name: "pso", New: func(seed int64) (opt.Optimizer, error) {
			cfg := opt.DefaultSwarmConfig(dims)
			cfg.Particles = population
			// The swarm also evaluates its final positions, so it runs one
			// fewer iteration to stay within budget.
			cfg.Iterations = max(iterations-1, 0)
			cfg.Seed = seed
			cfg.Workers = workers
			return opt.NewSwarm(cfg)
		}},
		{Name: "aco", New: func(seed int64) (opt.Optimizer, error) {
			cfg := opt.DefaultAntColonyConfig(dims)
			cfg.Ants = population
			cfg.Iterations = iterations
			cfg.Seed = seed
			cfg.Workers = workers
			return opt.NewAntColony(cfg)
		}},
	}
}
