package opt

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/bioopt/internal/objective"
	"github.com/cwbudde/bioopt/internal/rng"
)

// evaluate computes fn for every vector, writing fitness values back by
// member index so that downstream selection and update logic sees the same
// ordering regardless of evaluation mode.
//
// workers <= 1 runs the synchronous reference behavior. workers > 1 fans the
// evaluations out over an errgroup-limited pool; each goroutine writes only
// its own index and no random draws happen here, so a fixed seed stays
// bit-deterministic in both modes.
func evaluate(ctx context.Context, fn objective.Func, vectors [][]float64, fits []float64, workers int) error {
	if workers <= 1 {
		for i, v := range vectors {
			fit, err := fn(v)
			if err != nil {
				return &EvalError{Member: i, Err: err}
			}
			fits[i] = fit
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range vectors {
		g.Go(func() error {
			fit, err := fn(vectors[i])
			if err != nil {
				return &EvalError{Member: i, Err: err}
			}
			fits[i] = fit
			return nil
		})
	}
	return g.Wait()
}

// uniform draws from [lo, hi) using the supplied source.
func uniform(src rng.Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
