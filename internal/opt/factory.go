package opt

import (
	"fmt"

	"github.com/cwbudde/bioopt/internal/rng"
)

// Spec is the algorithm-independent configuration surface used by the CLI
// and the job server. Zero-valued counts fall back to the algorithm's
// defaults; rate fields are pointers so an explicit zero (e.g. mutation
// disabled) survives the JSON boundary. Fields an algorithm does not use are
// ignored.
type Spec struct {
	Algorithm  string `json:"algorithm"`
	Dimensions int    `json:"dimensions"`
	Population int    `json:"population,omitempty"`
	Iterations int    `json:"iterations,omitempty"`

	MutationRate  *float64 `json:"mutationRate,omitempty"`
	CrossoverRate *float64 `json:"crossoverRate,omitempty"`

	Inertia   *float64 `json:"inertia,omitempty"`
	Cognitive *float64 `json:"cognitive,omitempty"`
	Social    *float64 `json:"social,omitempty"`

	Seed           int64 `json:"seed,omitempty"`
	Workers        int   `json:"workers,omitempty"`
	MaxEvaluations int   `json:"maxEvaluations,omitempty"`

	// InitialBest seeds the first population member, used on resume.
	InitialBest []float64 `json:"initialBest,omitempty"`

	// Rand and Progress are runtime wiring, never serialized.
	Rand     rng.Source           `json:"-"`
	Progress func(IterationStats) `json:"-"`
}

// New constructs the optimizer named by spec.Algorithm.
func New(spec Spec) (Optimizer, error) {
	switch spec.Algorithm {
	case "genetic":
		cfg := DefaultGeneticConfig(spec.Dimensions)
		if spec.Population > 0 {
			cfg.PopulationSize = spec.Population
		}
		if spec.Iterations > 0 {
			cfg.Generations = spec.Iterations
		}
		if spec.MutationRate != nil {
			cfg.MutationRate = *spec.MutationRate
		}
		if spec.CrossoverRate != nil {
			cfg.CrossoverRate = *spec.CrossoverRate
		}
		cfg.InitialBest = spec.InitialBest
		cfg.Seed = spec.Seed
		cfg.Rand = spec.Rand
		cfg.Workers = spec.Workers
		cfg.MaxEvaluations = spec.MaxEvaluations
		cfg.Progress = spec.Progress
		return NewGenetic(cfg)

	case "pso":
		cfg := DefaultSwarmConfig(spec.Dimensions)
		if spec.Population > 0 {
			cfg.Particles = spec.Population
		}
		if spec.Iterations > 0 {
			cfg.Iterations = spec.Iterations
		}
		if spec.Inertia != nil {
			cfg.Inertia = *spec.Inertia
		}
		if spec.Cognitive != nil {
			cfg.Cognitive = *spec.Cognitive
		}
		if spec.Social != nil {
			cfg.Social = *spec.Social
		}
		cfg.InitialBest = spec.InitialBest
		cfg.Seed = spec.Seed
		cfg.Rand = spec.Rand
		cfg.Workers = spec.Workers
		cfg.MaxEvaluations = spec.MaxEvaluations
		cfg.Progress = spec.Progress
		return NewSwarm(cfg)

	case "aco":
		cfg := DefaultAntColonyConfig(spec.Dimensions)
		if spec.Population > 0 {
			cfg.Ants = spec.Population
		}
		if spec.Iterations > 0 {
			cfg.Iterations = spec.Iterations
		}
		cfg.Seed = spec.Seed
		cfg.Rand = spec.Rand
		cfg.Workers = spec.Workers
		cfg.MaxEvaluations = spec.MaxEvaluations
		cfg.Progress = spec.Progress
		return NewAntColony(cfg)

	case "mayfly":
		cfg := DefaultMayflyConfig(spec.Dimensions)
		if spec.Population > 0 {
			cfg.Population = spec.Population
		}
		if spec.Iterations > 0 {
			cfg.Iterations = spec.Iterations
		}
		cfg.Seed = spec.Seed
		return NewMayfly(cfg)

	default:
		return nil, fmt.Errorf("unknown algorithm %q (available: genetic, pso, aco, mayfly)", spec.Algorithm)
	}
}
