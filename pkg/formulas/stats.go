// Package formulas provides the pure statistical building blocks used by
// the risk and optimization modules.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from periodic returns.
// Formula: Std Dev of Periodic Returns × sqrt(periods per year)
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(periodsPerYear)
}

// AnnualizedMean scales the periodic mean return to an annual figure.
func AnnualizedMean(returns []float64, periodsPerYear float64) float64 {
	return Mean(returns) * periodsPerYear
}

// Skewness calculates the sample skewness of the data.
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	return stat.Skew(data, nil)
}

// ExcessKurtosis calculates the sample excess kurtosis of the data.
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 0
	}
	return stat.ExKurtosis(data, nil)
}

// Percentile returns the pct-th percentile (0-100) of the data using linear
// interpolation between order statistics: the value at zero-based rank
// pct/100*(n-1), interpolating between the two neighboring sorted samples.
// This matches the numpy default and is the interpolation rule assumed by
// the historical VaR tests.
func Percentile(data []float64, pct float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// CumulativeWealth builds the compounded wealth curve from periodic
// returns, starting at 1: C[t] = (1+r[0]) * ... * (1+r[t]).
func CumulativeWealth(returns []float64) []float64 {
	wealth := make([]float64, len(returns))
	c := 1.0
	for t, r := range returns {
		c *= 1 + r
		wealth[t] = c
	}
	return wealth
}

// MaxDrawdown returns the worst peak-to-trough decline of the compounded
// wealth curve, as a fraction <= 0. It is exactly 0 when the wealth curve
// never falls below a previous maximum.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	peak := math.Inf(-1)
	worst := 0.0
	for _, c := range CumulativeWealth(returns) {
		if c > peak {
			peak = c
		}
		dd := c/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// DownsideDeviation is the annualized root-mean-square of the negative
// excess returns below target. Returns 0 when no period falls below target.
func DownsideDeviation(returns []float64, target, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sumSq float64
	var count int
	for _, r := range returns {
		if excess := r - target; excess < 0 {
			sumSq += excess * excess
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq/float64(count)) * math.Sqrt(periodsPerYear)
}
