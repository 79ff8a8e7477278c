package objective

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphere(t *testing.T) {
	fit, err := Sphere([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, fit, "optimum at the origin")

	fit, err = Sphere([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, -5.0, fit)

	// Any off-origin point scores below the optimum.
	fit, err = Sphere([]float64{0.1})
	require.NoError(t, err)
	assert.Less(t, fit, 0.0)
}

func TestRastrigin(t *testing.T) {
	fit, err := Rastrigin([]float64{0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, fit, 1e-12, "optimum at the origin")

	// Local maxima near integer coordinates still score below the optimum.
	fit, err = Rastrigin([]float64{1, 1})
	require.NoError(t, err)
	assert.Less(t, fit, 0.0)
}

func TestRosenbrock(t *testing.T) {
	fit, err := Rosenbrock([]float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, fit, "optimum at (1,...,1)")

	fit, err = Rosenbrock([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, -1.0, fit)
}

func TestMyceliumGrowth(t *testing.T) {
	// The cultivar optima with positive nutrient and CO2 inputs score well.
	good, err := MyceliumGrowth([]float64{0.7, 0.8, 1.0, 0.3, 0.0, 1.0})
	require.NoError(t, err)

	bad, err := MyceliumGrowth([]float64{-1, -1, 0, 2, 5, 0})
	require.NoError(t, err)

	assert.Greater(t, good, bad)
	assert.Greater(t, good, 1.0, "near-optimal conditions include the balance bonus")
}

func TestMyceliumGrowth_TooFewDimensions(t *testing.T) {
	_, err := MyceliumGrowth([]float64{1, 2, 3})
	require.Error(t, err)

	var dimErr *DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 6, dimErr.Want)
	assert.Equal(t, 3, dimErr.Got)
}

func TestDimensioned(t *testing.T) {
	fn := Dimensioned(Sphere, 3)

	fit, err := fn([]float64{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, -1.0, fit)

	_, err = fn([]float64{1, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, &DimensionError{})
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"sphere", "rastrigin", "rosenbrock", "mycelium"} {
		fn, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn, name)
	}

	_, err := Lookup("himmelblau")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown objective")
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"mycelium", "rastrigin", "rosenbrock", "sphere"}, names)
}
