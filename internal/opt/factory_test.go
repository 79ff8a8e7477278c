package opt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/bioopt/internal/rng"
)

func TestNew_AlgorithmNames(t *testing.T) {
	for _, algo := range []string{"genetic", "pso", "aco", "mayfly"} {
		t.Run(algo, func(t *testing.T) {
			o, err := New(Spec{Algorithm: algo, Dimensions: 3, Population: 20})
			require.NoError(t, err)
			assert.Equal(t, algo, o.Name())
		})
	}
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	_, err := New(Spec{Algorithm: "simulated-annealing", Dimensions: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown algorithm")
}

func TestNew_ZeroCountsFallBackToDefaults(t *testing.T) {
	// Population and iterations of 0 mean "use the algorithm defaults";
	// the run completes with the documented default budget.
	o, err := New(Spec{Algorithm: "pso", Dimensions: 2, Seed: 42})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), sphereDim(2))
	require.NoError(t, err)

	def := DefaultSwarmConfig(2)
	assert.Equal(t, def.Iterations, res.Iterations)
	assert.Equal(t, def.Iterations*def.Particles, res.Evaluations)
}

func TestNew_ExplicitZeroRateHonored(t *testing.T) {
	// A nil rate pointer means default; a pointer to zero disables the
	// operator. With mutation and crossover both zero and a population
	// seeded from the best individual, tournament selection alone drives
	// the population toward copies of strong parents.
	zero := 0.0
	spec := Spec{
		Algorithm:     "genetic",
		Dimensions:    3,
		Population:    10,
		Iterations:    5,
		MutationRate:  &zero,
		CrossoverRate: &zero,
		Seed:          42,
	}

	o, err := New(spec)
	require.NoError(t, err)

	res, err := o.Run(context.Background(), sphereDim(3))
	require.NoError(t, err)

	// With both operators disabled, every final individual is a verbatim
	// copy of some generation-0 individual. Verify against a reconstruction
	// of generation 0 from the same seed.
	cfg := DefaultGeneticConfig(3)
	cfg.PopulationSize = 10
	cfg.MutationRate = 0
	cfg.CrossoverRate = 0
	gen0 := initPopulation(rng.New(42), cfg)

	for i, c := range res.Final {
		assert.True(t, vectorInPopulation(c.Vector, gen0),
			"final individual %d is not a generation-0 copy", i)
	}
}

func TestNew_InvalidSpecPropagatesConfigError(t *testing.T) {
	bad := 1.5
	_, err := New(Spec{
		Algorithm:    "genetic",
		Dimensions:   3,
		MutationRate: &bad,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, &ConfigError{})
}

func vectorInPopulation(v []float64, pop [][]float64) bool {
	for _, p := range pop {
		if len(p) != len(v) {
			continue
		}
		match := true
		for d := range v {
			if p[d] != v[d] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
