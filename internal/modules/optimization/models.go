package optimization

import "time"

// ConstraintKind distinguishes equality from inequality constraints.
type ConstraintKind int

const (
	// Equality constraints hold when Fn(w) == 0.
	Equality ConstraintKind = iota
	// Inequality constraints hold when Fn(w) >= 0.
	Inequality
)

// Constraint is an additional restriction on the weight vector supplied by
// the caller. The optimizer merges it with the base simplex + long-only
// region without inspecting its semantics.
type Constraint struct {
	Kind ConstraintKind
	Fn   func(w []float64) float64
}

// SolveOptions caps the work a single solve may perform so a hosting
// service can bound latency. Hitting a cap is a soft failure: the best
// iterate found so far is returned with Converged=false.
type SolveOptions struct {
	MaxIterations int
	MaxRuntime    time.Duration
}

// SharpeResult is the outcome of a Sharpe-ratio maximization.
type SharpeResult struct {
	Weights     []float64 `json:"weights"`
	SharpeRatio float64   `json:"sharpe_ratio"`
	Converged   bool      `json:"converged"`
	Status      string    `json:"status"`
}

// FrontierPoint is one point of the efficient frontier: the minimum
// volatility achievable for a target expected return, and the weights that
// achieve it.
type FrontierPoint struct {
	TargetReturn float64   `json:"target_return"`
	Volatility   float64   `json:"volatility"`
	Weights      []float64 `json:"weights"`
}

// Metrics are the diagnostic figures for an arbitrary weight vector.
type Metrics struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}
