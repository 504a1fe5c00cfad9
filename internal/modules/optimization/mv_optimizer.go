// Package optimization implements mean-variance portfolio optimization
// under Modern Portfolio Theory: Sharpe-ratio maximization, efficient
// frontier generation and portfolio diagnostics over a return series.
package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/frontier/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// penaltyWeight scales the quadratic penalties that enforce the
	// simplex and any caller-supplied constraints.
	penaltyWeight = 1000.0

	// varianceFloor keeps objectives finite when the portfolio variance is
	// numerically zero (e.g. a single asset with constant returns).
	varianceFloor = 1e-10

	// DefaultMaxIterations bounds a single solve when the caller supplies
	// no budget of its own.
	DefaultMaxIterations = 1000
)

// Optimizer performs mean-variance optimization over a return series.
// It carries a single reference risk-free rate used consistently by both
// the Sharpe objective and the Metrics diagnostic.
type Optimizer struct {
	series       *domain.ReturnSeries
	mu           []float64
	sigma        *mat.SymDense
	riskFreeRate float64
	log          zerolog.Logger
}

// New creates an optimizer for the given return series.
func New(series *domain.ReturnSeries, riskFreeRate float64, log zerolog.Logger) (*Optimizer, error) {
	if series == nil {
		return nil, fmt.Errorf("return series is nil")
	}
	return &Optimizer{
		series:       series,
		mu:           series.MeanReturns(),
		sigma:        series.Covariance(),
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "mv_optimizer").Logger(),
	}, nil
}

// RiskFreeRate returns the reference risk-free rate.
func (o *Optimizer) RiskFreeRate() float64 { return o.riskFreeRate }

// MaximizeSharpe finds the long-only, fully invested weight vector with the
// highest Sharpe ratio, optionally subject to extra caller constraints.
//
// Non-convergence is a soft failure: the best iterate found is clamped to
// the feasible region and returned with Converged=false, so the caller can
// judge whether the quality is acceptable. An error is returned only when
// the solver produced no usable iterate at all.
func (o *Optimizer) MaximizeSharpe(extra []Constraint, opts *SolveOptions) (*SharpeResult, error) {
	n := len(o.mu)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectUnit(x)
			ret := floats.Dot(o.mu, w)
			std := math.Sqrt(math.Max(o.quadForm(w), varianceFloor))

			obj := -(ret - o.riskFreeRate) / std
			sum := floats.Sum(w)
			obj += penaltyWeight * (sum - 1) * (sum - 1)
			obj += constraintPenalty(w, extra)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectUnit(x)
			ret := floats.Dot(o.mu, w)
			std := math.Sqrt(math.Max(o.quadForm(w), varianceFloor))

			for i := 0; i < n; i++ {
				var dVar float64
				for j := 0; j < n; j++ {
					dVar += 2 * o.sigma.At(i, j) * w[j]
				}
				grad[i] = -o.mu[i]/std + (ret-o.riskFreeRate)*dVar/(2*std*std*std)
			}
			sum := floats.Sum(w)
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1)
			}
			addConstraintPenaltyGrad(grad, w, extra)
		},
	}

	result, converged, err := o.solve(problem, opts)
	if err != nil {
		return nil, fmt.Errorf("sharpe maximization failed: %w", err)
	}

	weights := finalizeWeights(result.X)
	ret := floats.Dot(o.mu, weights)
	vol := math.Sqrt(math.Max(o.quadForm(weights), 0))
	// Recompute the ratio at the solution point rather than negating the
	// objective value, which still carries penalty terms.
	sharpe := o.sharpeAt(ret, vol)

	if !converged {
		o.log.Warn().
			Str("status", result.Status.String()).
			Float64("sharpe", sharpe).
			Msg("Sharpe maximization did not converge, returning best iterate")
	} else {
		o.log.Debug().
			Float64("sharpe", sharpe).
			Float64("expected_return", ret).
			Float64("volatility", vol).
			Msg("Sharpe maximization converged")
	}

	return &SharpeResult{
		Weights:     weights,
		SharpeRatio: sharpe,
		Converged:   converged,
		Status:      result.Status.String(),
	}, nil
}

// Metrics computes expected return, volatility and Sharpe ratio for an
// arbitrary weight vector. It is a pure diagnostic: the weights are not
// required to sum to 1 or be non-negative.
func (o *Optimizer) Metrics(weights []float64) (Metrics, error) {
	if len(weights) != len(o.mu) {
		return Metrics{}, fmt.Errorf("%w: got %d weights for %d assets", domain.ErrShapeMismatch, len(weights), len(o.mu))
	}
	ret := floats.Dot(o.mu, weights)
	vol := math.Sqrt(math.Max(o.quadForm(weights), 0))
	return Metrics{
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    o.sharpeAt(ret, vol),
	}, nil
}

// minVolatilityForTarget solves the minimum-variance problem subject to the
// base feasible region plus the target expected return.
func (o *Optimizer) minVolatilityForTarget(target float64, opts *SolveOptions) ([]float64, float64, bool, error) {
	n := len(o.mu)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectUnit(x)
			ret := floats.Dot(o.mu, w)
			sum := floats.Sum(w)

			obj := o.quadForm(w)
			obj += penaltyWeight * (sum - 1) * (sum - 1)
			obj += penaltyWeight * (ret - target) * (ret - target)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectUnit(x)
			ret := floats.Dot(o.mu, w)
			sum := floats.Sum(w)

			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * o.sigma.At(i, j) * w[j]
				}
				grad[i] += 2 * penaltyWeight * (sum - 1)
				grad[i] += 2 * penaltyWeight * (ret - target) * o.mu[i]
			}
		},
	}

	result, converged, err := o.solve(problem, opts)
	if err != nil {
		return nil, 0, false, fmt.Errorf("min-volatility solve for target %.6f failed: %w", target, err)
	}

	weights := finalizeWeights(result.X)
	vol := math.Sqrt(math.Max(o.quadForm(weights), 0))
	return weights, vol, converged, nil
}

// solve runs the penalized problem from the uniform initial guess with
// Nelder-Mead, retrying with BFGS when it does not converge. A result with
// converged=false is still usable (iteration cap, runtime cap, or a method
// that stalled); an error means no iterate was produced at all.
func (o *Optimizer) solve(problem optimize.Problem, opts *SolveOptions) (*optimize.Result, bool, error) {
	n := len(o.mu)
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	settings := &optimize.Settings{MajorIterations: DefaultMaxIterations}
	if opts != nil {
		if opts.MaxIterations > 0 {
			settings.MajorIterations = opts.MaxIterations
		}
		if opts.MaxRuntime > 0 {
			settings.Runtime = opts.MaxRuntime
		}
	}

	var best *optimize.Result
	for _, method := range []optimize.Method{&optimize.NelderMead{}, &optimize.BFGS{}} {
		result, err := optimize.Minimize(problem, initial, settings, method)
		if result != nil && best == nil {
			best = result
		}
		if err != nil {
			continue
		}
		switch result.Status {
		case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
			return result, true, nil
		}
		best = result
	}

	if best == nil {
		return nil, false, fmt.Errorf("no solver produced an iterate")
	}
	return best, false, nil
}

// sharpeAt computes the Sharpe ratio at a solution point. Zero volatility
// resolves to a signed infinity sentinel rather than dividing by zero.
func (o *Optimizer) sharpeAt(ret, vol float64) float64 {
	excess := ret - o.riskFreeRate
	if vol <= 0 {
		switch {
		case excess > 0:
			return math.Inf(1)
		case excess < 0:
			return math.Inf(-1)
		}
		return 0
	}
	return excess / vol
}

// quadForm computes w'Σw.
func (o *Optimizer) quadForm(w []float64) float64 {
	var v float64
	n := len(w)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v += w[i] * w[j] * o.sigma.At(i, j)
		}
	}
	return v
}

// projectUnit clamps each coordinate to [0, 1].
func projectUnit(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i, v := range x {
		proj[i] = math.Max(0, math.Min(1, v))
	}
	return proj
}

// finalizeWeights clamps the solver iterate to the long-only region and
// renormalizes it to full investment.
func finalizeWeights(x []float64) []float64 {
	weights := projectUnit(x)
	sum := floats.Sum(weights)
	if sum <= 0 {
		// Degenerate iterate, fall back to the uniform allocation.
		for i := range weights {
			weights[i] = 1.0 / float64(len(weights))
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// constraintPenalty converts caller constraints into quadratic penalties.
func constraintPenalty(w []float64, cs []Constraint) float64 {
	var p float64
	for _, c := range cs {
		v := c.Fn(w)
		switch c.Kind {
		case Equality:
			p += penaltyWeight * v * v
		case Inequality:
			if v < 0 {
				p += penaltyWeight * v * v
			}
		}
	}
	return p
}

// addConstraintPenaltyGrad adds a central-difference gradient of the
// caller-constraint penalty. The constraint functions are opaque, so a
// numerical gradient is the only option here.
func addConstraintPenaltyGrad(grad, w []float64, cs []Constraint) {
	if len(cs) == 0 {
		return
	}
	const h = 1e-6
	shifted := make([]float64, len(w))
	for i := range w {
		copy(shifted, w)
		shifted[i] = w[i] + h
		fp := constraintPenalty(shifted, cs)
		shifted[i] = w[i] - h
		fm := constraintPenalty(shifted, cs)
		grad[i] += (fp - fm) / (2 * h)
	}
}
