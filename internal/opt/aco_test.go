package opt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/bioopt/internal/objective"
)

func TestNewAntColony_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*AntColonyConfig)
	}{
		{"zero dimensions", func(c *AntColonyConfig) { c.Dimensions = 0 }},
		{"single ant", func(c *AntColonyConfig) { c.Ants = 1 }},
		{"negative iterations", func(c *AntColonyConfig) { c.Iterations = -1 }},
		{"zero evaporation", func(c *AntColonyConfig) { c.Evaporation = 0 }},
		{"full evaporation", func(c *AntColonyConfig) { c.Evaporation = 1 }},
		{"single bin", func(c *AntColonyConfig) { c.Bins = 1 }},
		{"inverted range", func(c *AntColonyConfig) { c.Min, c.Max = 1, -1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultAntColonyConfig(3)
			tc.mutate(&cfg)

			_, err := NewAntColony(cfg)
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T", err)
		})
	}
}

func TestAntColony_Run_ResultShape(t *testing.T) {
	cfg := DefaultAntColonyConfig(3)
	cfg.Ants = 10
	cfg.Iterations = 15
	cfg.Seed = 42

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), sphereDim(3))
	require.NoError(t, err)

	assert.Equal(t, 15, res.Iterations)
	assert.Equal(t, 15*10, res.Evaluations)
	assert.Len(t, res.History, 15)
	assert.Len(t, res.Final, 10)
	assert.Len(t, res.BestVector, 3)
}

func TestAntColony_Run_SolutionsStayInRange(t *testing.T) {
	cfg := DefaultAntColonyConfig(4)
	cfg.Ants = 8
	cfg.Iterations = 20
	cfg.Min = -2
	cfg.Max = 3
	cfg.Seed = 5

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), sphereDim(4))
	require.NoError(t, err)

	// Bin decoding can only produce values in [Min, Max).
	check := func(v []float64) {
		for d, x := range v {
			assert.GreaterOrEqual(t, x, cfg.Min, "dimension %d", d)
			assert.Less(t, x, cfg.Max, "dimension %d", d)
		}
	}
	check(res.BestVector)
	for _, c := range res.Final {
		check(c.Vector)
	}
}

func TestAntColony_Run_BestMonotone(t *testing.T) {
	cfg := DefaultAntColonyConfig(3)
	cfg.Ants = 12
	cfg.Iterations = 40
	cfg.Seed = 7

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), sphereDim(3))
	require.NoError(t, err)

	// History carries the running best, so it never regresses.
	for i := 1; i < len(res.History); i++ {
		assert.GreaterOrEqual(t, res.History[i].BestFitness, res.History[i-1].BestFitness,
			"best regressed at iteration %d", i)
	}
	assert.Equal(t, res.History[len(res.History)-1].BestFitness, res.BestFitness)
}

func TestAntColony_Run_ReinforcesGoodBins(t *testing.T) {
	// A positive objective that peaks sharply in one region: pheromone
	// reinforcement should steer later ants toward it.
	peak := func(x []float64) (float64, error) {
		var sum float64
		for _, v := range x {
			d := v - 0.5
			sum += d * d
		}
		return 1 / (1 + 10*sum), nil
	}

	cfg := DefaultAntColonyConfig(2)
	cfg.Ants = 20
	cfg.Iterations = 60
	cfg.Min = -1
	cfg.Max = 1
	cfg.Bins = 40
	cfg.Seed = 19

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), peak)
	require.NoError(t, err)

	// Bin width is 0.05; the colony should land within a couple of bins of
	// the peak in both dimensions.
	for d, v := range res.BestVector {
		assert.InDelta(t, 0.5, v, 0.15, "dimension %d missed the peak", d)
	}
	assert.Greater(t, res.BestFitness, 0.8)
}

func TestAntColony_Run_Deterministic(t *testing.T) {
	run := func(workers int) *Result {
		cfg := DefaultAntColonyConfig(3)
		cfg.Ants = 10
		cfg.Iterations = 25
		cfg.Seed = 77
		cfg.Workers = workers

		a, err := NewAntColony(cfg)
		require.NoError(t, err)

		res, err := a.Run(context.Background(), sphereDim(3))
		require.NoError(t, err)
		return res
	}

	serial := run(1)
	parallel := run(4)

	assert.Equal(t, serial.BestVector, parallel.BestVector)
	assert.Equal(t, serial.BestFitness, parallel.BestFitness)
}

func TestAntColony_Run_MaxEvaluationsBudget(t *testing.T) {
	cfg := DefaultAntColonyConfig(3)
	cfg.Ants = 10
	cfg.Iterations = 1000
	cfg.MaxEvaluations = 55
	cfg.Seed = 3

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), sphereDim(3))
	require.NoError(t, err)

	assert.Equal(t, 50, res.Evaluations)
	assert.Equal(t, 5, res.Iterations)
}

func TestAntColony_Run_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	evals := 0
	fn := func(x []float64) (float64, error) {
		evals++
		if evals == 35 {
			cancel()
		}
		return objective.Sphere(x)
	}

	cfg := DefaultAntColonyConfig(3)
	cfg.Ants = 10
	cfg.Iterations = 100000
	cfg.Seed = 23

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(ctx, fn)
	require.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, res)
	assert.Len(t, res.BestVector, 3)
	assert.Greater(t, res.Evaluations, 0)
}

func TestAntColony_Run_EvalErrorAborts(t *testing.T) {
	boom := errors.New("evaluation backend down")
	failing := func(x []float64) (float64, error) {
		return 0, boom
	}

	cfg := DefaultAntColonyConfig(3)
	cfg.Ants = 10
	cfg.Iterations = 10
	cfg.Seed = 29

	a, err := NewAntColony(cfg)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), failing)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
}
