// Package objective defines the fitness-function contract shared by all
// optimizers, plus a registry of built-in benchmark functions.
package objective

import "fmt"

// Func maps a candidate vector to a scalar fitness to MAXIMIZE.
// Implementations must be pure and side-effect free; an error aborts the
// optimization run that invoked it.
type Func func(x []float64) (float64, error)

// DimensionError reports a vector whose length does not match the expected
// dimensionality.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("objective: expected %d dimensions, got %d", e.Want, e.Got)
}

func (e *DimensionError) Is(target error) bool {
	_, ok := target.(*DimensionError)
	return ok
}

// Dimensioned wraps fn with a vector-length check, so callers get a
// DimensionError instead of a silent misread or panic on malformed input.
func Dimensioned(fn Func, dims int) Func {
	return func(x []float64) (float64, error) {
		if len(x) != dims {
			return 0, &DimensionError{Want: dims, Got: len(x)}
		}
		return fn(x)
	}
}
