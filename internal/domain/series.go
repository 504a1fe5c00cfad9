// Package domain holds the pure data types shared by the optimization and
// risk modules. Nothing in this package touches infrastructure.
package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultPeriodsPerYear is the annualization factor for daily return data.
const DefaultPeriodsPerYear = 252.0

// ErrShapeMismatch is returned when a weight vector does not match the
// asset universe of a return series.
var ErrShapeMismatch = errors.New("weight vector length does not match asset universe")

// ReturnSeries holds aligned historical per-period returns for a fixed set
// of assets. The annualized mean-return vector and covariance matrix are
// derived once at construction; the series is immutable afterwards and safe
// to share across any number of concurrent optimizers and analyzers.
type ReturnSeries struct {
	assets  []string
	dates   []time.Time
	returns [][]float64 // rows are periods, columns follow assets
	ppy     float64

	mu  []float64     // annualized mean returns, one per asset
	cov *mat.SymDense // annualized covariance matrix
}

// NewReturnSeries validates and builds a return series.
//
// assets must be non-empty with unique identifiers. returns must have one
// row per period and one column per asset, with at least 2 periods (the
// covariance needs 2 samples) and no NaN/Inf values. dates is optional;
// when provided it must have one entry per period, strictly increasing.
// periodsPerYear <= 0 selects DefaultPeriodsPerYear.
func NewReturnSeries(assets []string, dates []time.Time, returns [][]float64, periodsPerYear float64) (*ReturnSeries, error) {
	n := len(assets)
	if n == 0 {
		return nil, fmt.Errorf("asset universe is empty")
	}
	seen := make(map[string]bool, n)
	for _, a := range assets {
		if a == "" {
			return nil, fmt.Errorf("asset identifier is empty")
		}
		if seen[a] {
			return nil, fmt.Errorf("duplicate asset identifier %q", a)
		}
		seen[a] = true
	}

	if len(returns) < 2 {
		return nil, fmt.Errorf("need at least 2 periods for covariance estimation, got %d", len(returns))
	}
	for t, row := range returns {
		if len(row) != n {
			return nil, fmt.Errorf("period %d has %d returns, expected %d", t, len(row), n)
		}
		for i, r := range row {
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return nil, fmt.Errorf("return for asset %q at period %d is not finite", assets[i], t)
			}
		}
	}

	if dates != nil {
		if len(dates) != len(returns) {
			return nil, fmt.Errorf("got %d dates for %d periods", len(dates), len(returns))
		}
		for t := 1; t < len(dates); t++ {
			if !dates[t].After(dates[t-1]) {
				return nil, fmt.Errorf("dates must be strictly increasing, violated at period %d", t)
			}
		}
	}

	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	s := &ReturnSeries{
		assets:  append([]string(nil), assets...),
		returns: copyRows(returns),
		ppy:     periodsPerYear,
	}
	if dates != nil {
		s.dates = append([]time.Time(nil), dates...)
	}
	s.derive()
	return s, nil
}

// NewReturnSeriesFromColumns builds a return series from per-asset return
// columns, as supplied by API callers. Assets are ordered alphabetically so
// the column order is deterministic. All columns must have equal length.
func NewReturnSeriesFromColumns(columns map[string][]float64, periodsPerYear float64) (*ReturnSeries, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("asset universe is empty")
	}
	assets := make([]string, 0, len(columns))
	for asset := range columns {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	periods := len(columns[assets[0]])
	for _, asset := range assets {
		if len(columns[asset]) != periods {
			return nil, fmt.Errorf("asset %q has %d returns, expected %d", asset, len(columns[asset]), periods)
		}
	}

	rows := make([][]float64, periods)
	for t := 0; t < periods; t++ {
		row := make([]float64, len(assets))
		for i, asset := range assets {
			row[i] = columns[asset][t]
		}
		rows[t] = row
	}
	return NewReturnSeries(assets, nil, rows, periodsPerYear)
}

// derive computes the annualized mean vector and covariance matrix.
func (s *ReturnSeries) derive() {
	n := len(s.assets)
	cols := make([][]float64, n)
	for i := 0; i < n; i++ {
		col := make([]float64, len(s.returns))
		for t, row := range s.returns {
			col[t] = row[i]
		}
		cols[i] = col
	}

	s.mu = make([]float64, n)
	for i := 0; i < n; i++ {
		s.mu[i] = stat.Mean(cols[i], nil) * s.ppy
	}

	s.cov = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.cov.SetSym(i, j, stat.Covariance(cols[i], cols[j], nil)*s.ppy)
		}
	}
}

// Assets returns a copy of the asset universe, in column order.
func (s *ReturnSeries) Assets() []string {
	return append([]string(nil), s.assets...)
}

// Dates returns a copy of the period dates, or nil if none were supplied.
func (s *ReturnSeries) Dates() []time.Time {
	if s.dates == nil {
		return nil
	}
	return append([]time.Time(nil), s.dates...)
}

// NumAssets returns the size of the asset universe.
func (s *ReturnSeries) NumAssets() int { return len(s.assets) }

// NumPeriods returns the number of periods in the series.
func (s *ReturnSeries) NumPeriods() int { return len(s.returns) }

// PeriodsPerYear returns the annualization factor.
func (s *ReturnSeries) PeriodsPerYear() float64 { return s.ppy }

// MeanReturns returns a copy of the annualized mean-return vector.
func (s *ReturnSeries) MeanReturns() []float64 {
	return append([]float64(nil), s.mu...)
}

// Covariance returns a copy of the annualized covariance matrix.
func (s *ReturnSeries) Covariance() *mat.SymDense {
	n := len(s.assets)
	out := mat.NewSymDense(n, nil)
	out.CopySym(s.cov)
	return out
}

// PortfolioReturns computes the realized per-period portfolio return series
// for a fixed weight vector: the dot product of the weights with each
// period's per-asset return row.
func (s *ReturnSeries) PortfolioReturns(weights []float64) ([]float64, error) {
	if len(weights) != len(s.assets) {
		return nil, fmt.Errorf("%w: got %d weights for %d assets", ErrShapeMismatch, len(weights), len(s.assets))
	}
	out := make([]float64, len(s.returns))
	for t, row := range s.returns {
		var sum float64
		for i, w := range weights {
			sum += w * row[i]
		}
		out[t] = sum
	}
	return out, nil
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
