package opt

import (
	"context"
	"math"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/rng"
)

const tournamentSize = 3

// GeneticConfig configures the genetic optimizer.
type GeneticConfig struct {
	Dimensions     int     // >= 1
	PopulationSize int     // >= 2
	Generations    int     // >= 0
	MutationRate   float64 // in [0, 1]
	CrossoverRate  float64 // in [0, 1]

	// GeneMin/GeneMax bound gene initialization and mutation resampling.
	GeneMin float64
	GeneMax float64

	// InitialBest, when set, seeds the first individual of generation 0
	// (used when resuming from a checkpoint).
	InitialBest []float64

	// Seed drives the deterministic random source; ignored when Rand is set.
	Seed int64
	Rand rng.Source

	// Workers > 1 enables parallel fitness evaluation.
	Workers int

	// MaxEvaluations, when > 0, stops the run cooperatively once the next
	// generation would exceed the objective-call budget.
	MaxEvaluations int

	// Progress, when set, is called after each generation's evaluation from
	// the orchestrating goroutine.
	Progress func(IterationStats)
}

// DefaultGeneticConfig returns the canonical configuration for the given
// dimensionality. Callers override individual fields before NewGenetic;
// explicit zero rates are honored (a zero mutation rate means no mutation).
func DefaultGeneticConfig(dims int) GeneticConfig {
	return GeneticConfig{
		Dimensions:     dims,
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.01,
		CrossoverRate:  0.7,
		GeneMin:        -1,
		GeneMax:        1,
	}
}

func (c GeneticConfig) validate() error {
	if c.Dimensions < 1 {
		return &ConfigError{Field: "dimensions", Reason: "must be >= 1"}
	}
	if c.PopulationSize < 2 {
		return &ConfigError{Field: "populationSize", Reason: "must be >= 2"}
	}
	if c.Generations < 0 {
		return &ConfigError{Field: "generations", Reason: "must be >= 0"}
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return &ConfigError{Field: "mutationRate", Reason: "must be in [0, 1]"}
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return &ConfigError{Field: "crossoverRate", Reason: "must be in [0, 1]"}
	}
	if c.GeneMax <= c.GeneMin {
		return &ConfigError{Field: "geneMax", Reason: "must be greater than geneMin"}
	}
	if c.InitialBest != nil && len(c.InitialBest) != c.Dimensions {
		return &ConfigError{Field: "initialBest", Reason: "length must equal dimensions"}
	}
	return nil
}

// Genetic evolves a fixed-size population of real-valued vectors using
// tournament selection, uniform crossover, and per-gene uniform replacement
// mutation. Replacement is non-elitist: the whole population is replaced
// each generation, and the best solution is tracked separately so it cannot
// be lost.
type Genetic struct {
	cfg GeneticConfig
}

// NewGenetic validates the configuration and returns the optimizer.
// Configurations are taken literally; start from DefaultGeneticConfig for
// the documented defaults.
func NewGenetic(cfg GeneticConfig) (*Genetic, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Genetic{cfg: cfg}, nil
}

func (g *Genetic) Name() string { return "genetic" }

// Run executes the full optimization. Each generation evaluates the current
// population, then builds the next one from tournament-selected parents,
// adjacent-pair uniform crossover, and mutation. The final population is
// evaluated too, so Result.Final always carries fitness values.
func (g *Genetic) Run(ctx context.Context, fn objective.Func) (*Result, error) {
	cfg := g.cfg
	src := cfg.Rand
	if src == nil {
		src = rng.New(cfg.Seed)
	}

	pop := initPopulation(src, cfg)
	fits := make([]float64, len(pop))

	res := &Result{BestFitness: math.Inf(-1)}

	for gen := 0; ; gen++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if err := evaluate(ctx, fn, pop, fits, cfg.Workers); err != nil {
			return nil, err
		}
		res.Evaluations += len(pop)

		stats := IterationStats{Iteration: gen, BestFitness: math.Inf(-1), MeanFitness: mean(fits)}
		for i, fit := range fits {
			if fit > stats.BestFitness {
				stats.BestFitness = fit
			}
			if fit > res.BestFitness {
				res.BestFitness = fit
				res.BestVector = cloneVector(pop[i])
			}
		}
		res.History = append(res.History, stats)
		if cfg.Progress != nil {
			stats.BestVector = cloneVector(res.BestVector)
			cfg.Progress(stats)
		}

		if gen >= cfg.Generations {
			break
		}
		// Stop before evolving if evaluating the next generation would
		// exceed the objective-call budget; a generation is never left
		// half-applied.
		if cfg.MaxEvaluations > 0 && res.Evaluations+len(pop) > cfg.MaxEvaluations {
			break
		}
		res.Iterations = gen + 1

		pop = g.nextGeneration(src, pop, fits)
	}

	res.Final = make([]Candidate, len(pop))
	for i := range pop {
		res.Final[i] = Candidate{Vector: cloneVector(pop[i]), Fitness: fits[i]}
	}
	return res, nil
}

// initPopulation draws the generation-0 vectors uniformly from the gene
// range. When InitialBest is set, it becomes the first individual verbatim.
func initPopulation(src rng.Source, cfg GeneticConfig) [][]float64 {
	pop := make([][]float64, cfg.PopulationSize)
	for i := range pop {
		genes := make([]float64, cfg.Dimensions)
		for d := range genes {
			genes[d] = uniform(src, cfg.GeneMin, cfg.GeneMax)
		}
		pop[i] = genes
	}
	if cfg.InitialBest != nil {
		pop[0] = cloneVector(cfg.InitialBest)
	}
	return pop
}

// nextGeneration applies selection, crossover, and mutation, producing a
// brand-new population of the same size.
func (g *Genetic) nextGeneration(src rng.Source, pop [][]float64, fits []float64) [][]float64 {
	cfg := g.cfg

	selected := selectTournament(src, pop, fits)

	// Adjacent pairs undergo uniform crossover at the crossover rate;
	// unpaired or skipped parents pass through unchanged.
	for i := 0; i+1 < len(selected); i += 2 {
		if src.Float64() < cfg.CrossoverRate {
			crossUniform(src, selected[i], selected[i+1])
		}
	}

	for _, genes := range selected {
		for d := range genes {
			if src.Float64() < cfg.MutationRate {
				genes[d] = uniform(src, cfg.GeneMin, cfg.GeneMax)
			}
		}
	}

	return selected
}

// selectTournament fills a new pool the size of the population. Each slot is
// won by the fittest of three uniformly sampled individuals (sampled with
// replacement). Winners are copied so later mutation cannot alias parents.
func selectTournament(src rng.Source, pop [][]float64, fits []float64) [][]float64 {
	selected := make([][]float64, len(pop))
	for i := range selected {
		best := src.Intn(len(pop))
		for k := 1; k < tournamentSize; k++ {
			c := src.Intn(len(pop))
			if fits[c] > fits[best] {
				best = c
			}
		}
		selected[i] = cloneVector(pop[best])
	}
	return selected
}

// crossUniform exchanges genes between two offspring in place, each gene
// independently with probability 0.5.
func crossUniform(src rng.Source, a, b []float64) {
	for d := range a {
		if src.Float64() < 0.5 {
			a[d], b[d] = b[d], a[d]
		}
	}
}
