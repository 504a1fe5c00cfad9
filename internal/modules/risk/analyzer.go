// Package risk computes distributional risk statistics for a realized
// portfolio: VaR, expected shortfall, drawdown and downside-risk-adjusted
// return measures.
package risk

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/pkg/formulas"
	"github.com/rs/zerolog"
)

// VaR estimation methods.
const (
	MethodHistorical = "historical"
	MethodParametric = "parametric"
)

var (
	// ErrUnsupportedMethod is returned for an unknown VaR method name.
	ErrUnsupportedMethod = errors.New("unsupported VaR method")
	// ErrInvalidConfidence is returned when a confidence level is outside (0, 1).
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")
)

// Report aggregates the full battery of risk statistics. SortinoRatio may
// carry the +Inf sentinel when the series has no observed downside.
type Report struct {
	Volatility     float64 `json:"volatility"`
	VaR95          float64 `json:"var_95"`
	ES95           float64 `json:"es_95"`
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"kurtosis"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	SortinoRatio   float64 `json:"sortino_ratio"`
}

// Analyzer derives a realized per-period portfolio-return series from a
// return series and a fixed weight vector, once at construction, and
// computes risk statistics from it. Immutable after construction.
type Analyzer struct {
	series    *domain.ReturnSeries
	weights   []float64
	portfolio []float64
	log       zerolog.Logger
}

// New builds an analyzer for the given series and weight vector. The weight
// vector must match the series' asset universe; it is not required to sum
// to 1, since callers may analyze arbitrary allocations.
func New(series *domain.ReturnSeries, weights []float64, log zerolog.Logger) (*Analyzer, error) {
	if series == nil {
		return nil, fmt.Errorf("return series is nil")
	}
	portfolio, err := series.PortfolioReturns(weights)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		series:    series,
		weights:   append([]float64(nil), weights...),
		portfolio: portfolio,
		log:       log.With().Str("component", "risk_analyzer").Logger(),
	}, nil
}

// PortfolioReturns returns a copy of the realized per-period portfolio
// return series.
func (a *Analyzer) PortfolioReturns() []float64 {
	return append([]float64(nil), a.portfolio...)
}

// ValueAtRisk estimates the loss threshold not expected to be exceeded at
// the given confidence level, as a positive number for a loss.
//
// The historical method negates the empirical (1-confidence) percentile of
// the portfolio returns, with linear interpolation between order statistics
// (see formulas.Percentile). The parametric method assumes normally
// distributed returns: -(mean - z*std) at the standard-normal quantile z.
func (a *Analyzer) ValueAtRisk(confidence float64, method string) (float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}
	switch method {
	case MethodHistorical:
		return -formulas.Percentile(a.portfolio, (1-confidence)*100), nil
	case MethodParametric:
		z := distuv.UnitNormal.Quantile(confidence)
		return -(formulas.Mean(a.portfolio) - z*formulas.StdDev(a.portfolio)), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
}

// ExpectedShortfall estimates the average loss conditional on exceeding the
// historical VaR threshold. The interpolated percentile is never below the
// worst observation, so the tail always contains at least that observation;
// the equal-to-VaR fallback covers an empty tail should one ever arise.
func (a *Analyzer) ExpectedShortfall(confidence float64) (float64, error) {
	valueAtRisk, err := a.ValueAtRisk(confidence, MethodHistorical)
	if err != nil {
		return 0, err
	}

	var sum float64
	var count int
	for _, r := range a.portfolio {
		if r <= -valueAtRisk {
			sum += r
			count++
		}
	}
	if count == 0 {
		return valueAtRisk, nil
	}
	return -sum / float64(count), nil
}

// MaxDrawdown returns the worst peak-to-trough decline of the compounded
// wealth curve. Always <= 0; exactly 0 when the curve never falls below a
// previous maximum.
func (a *Analyzer) MaxDrawdown() float64 {
	return formulas.MaxDrawdown(a.portfolio)
}

// SortinoRatio computes the downside-risk-adjusted excess return. When no
// period falls below the target return the downside deviation is zero and
// the ratio is the +Inf sentinel, signalling "no observed downside";
// callers must treat it as a sentinel, not a number for further arithmetic.
func (a *Analyzer) SortinoRatio(riskFreeRate, targetReturn float64) float64 {
	downside := formulas.DownsideDeviation(a.portfolio, targetReturn, a.series.PeriodsPerYear())
	if downside == 0 {
		return math.Inf(1)
	}
	expected := formulas.AnnualizedMean(a.portfolio, a.series.PeriodsPerYear())
	return (expected - riskFreeRate) / downside
}

// Report computes the full battery of risk statistics at the conventional
// 95% confidence level. Each statistic is computed independently, so a
// sentinel in one entry (e.g. an unbounded Sortino ratio) does not affect
// the others.
func (a *Analyzer) Report(riskFreeRate float64) Report {
	// The fixed 0.95 level is inside (0, 1), so the VaR/ES errors cannot
	// trigger here.
	var95, _ := a.ValueAtRisk(0.95, MethodHistorical)
	es95, _ := a.ExpectedShortfall(0.95)

	ppy := a.series.PeriodsPerYear()
	report := Report{
		Volatility:     formulas.AnnualizedVolatility(a.portfolio, ppy),
		VaR95:          var95,
		ES95:           es95,
		Skewness:       formulas.Skewness(a.portfolio),
		ExcessKurtosis: formulas.ExcessKurtosis(a.portfolio),
		MaxDrawdown:    a.MaxDrawdown(),
		SortinoRatio:   a.SortinoRatio(riskFreeRate, 0),
	}

	a.log.Debug().
		Float64("volatility", report.Volatility).
		Float64("var_95", report.VaR95).
		Float64("max_drawdown", report.MaxDrawdown).
		Msg("Computed risk report")

	return report
}
