package optimization

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// EfficientFrontier sweeps numPoints evenly spaced target returns between
// the smallest and largest annualized asset mean (inclusive) and solves the
// minimum-volatility problem for each. Points are solved independently and
// in parallel, bounded by workers (0 selects runtime.NumCPU), and merged by
// target-return index so the result is ordered by increasing target return
// regardless of completion order.
//
// When all assets share the same expected return the sweep degenerates to
// repeatedly solving the global minimum-variance problem, which is valid
// output, not an error.
func (o *Optimizer) EfficientFrontier(ctx context.Context, numPoints, workers int) ([]FrontierPoint, error) {
	if numPoints < 1 {
		return nil, fmt.Errorf("frontier needs at least 1 point, got %d", numPoints)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	minRet := floats.Min(o.mu)
	maxRet := floats.Max(o.mu)

	targets := make([]float64, numPoints)
	if numPoints == 1 {
		targets[0] = minRet
	} else {
		floats.Span(targets, minRet, maxRet)
	}

	o.log.Debug().
		Int("num_points", numPoints).
		Int("workers", workers).
		Float64("min_return", minRet).
		Float64("max_return", maxRet).
		Msg("Sweeping efficient frontier")

	points := make([]FrontierPoint, numPoints)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			weights, vol, converged, err := o.minVolatilityForTarget(target, nil)
			if err != nil {
				return fmt.Errorf("frontier point %d: %w", i, err)
			}
			if !converged {
				o.log.Warn().
					Int("point", i).
					Float64("target_return", target).
					Msg("Frontier point did not converge, keeping best iterate")
			}
			points[i] = FrontierPoint{
				TargetReturn: target,
				Volatility:   vol,
				Weights:      weights,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return points, nil
}
