// Package fixedincome provides bond pricing analytics: yield to maturity,
// duration and convexity.
package fixedincome

import (
	"fmt"
	"math"
)

const (
	ytmInitialGuess = 0.05
	ytmTolerance    = 1e-10
	ytmMaxIter      = 100
)

// Instrument describes a coupon bond.
type Instrument struct {
	FaceValue        float64 `json:"face_value"`
	CouponRate       float64 `json:"coupon_rate"`
	YearsToMaturity  float64 `json:"years_to_maturity"`
	PaymentFrequency int     `json:"payment_frequency"` // payments per year
	CurrentPrice     float64 `json:"current_price"`
	CreditRating     string  `json:"credit_rating"`
}

// Analytics holds the computed figures for an instrument.
type Analytics struct {
	YieldToMaturity  float64 `json:"yield_to_maturity"`
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
}

// Calculator computes analytics for a single instrument.
type Calculator struct {
	inst Instrument
}

// NewCalculator validates the instrument and creates a calculator.
func NewCalculator(inst Instrument) (*Calculator, error) {
	if inst.FaceValue <= 0 {
		return nil, fmt.Errorf("face value must be positive, got %v", inst.FaceValue)
	}
	if inst.CurrentPrice <= 0 {
		return nil, fmt.Errorf("current price must be positive, got %v", inst.CurrentPrice)
	}
	if inst.YearsToMaturity <= 0 {
		return nil, fmt.Errorf("years to maturity must be positive, got %v", inst.YearsToMaturity)
	}
	if inst.PaymentFrequency < 1 {
		return nil, fmt.Errorf("payment frequency must be at least 1, got %d", inst.PaymentFrequency)
	}
	if inst.CouponRate < 0 {
		return nil, fmt.Errorf("coupon rate must be non-negative, got %v", inst.CouponRate)
	}
	return &Calculator{inst: inst}, nil
}

// npv is the net present value of the bond's cash flows at annual yield y,
// minus the current price. YTM is the root of this function.
func (c *Calculator) npv(y float64) float64 {
	m := float64(c.inst.PaymentFrequency)
	coupon := c.inst.FaceValue * c.inst.CouponRate / m
	periods := int(c.inst.YearsToMaturity * m)

	total := -c.inst.CurrentPrice
	for t := 1; t <= periods; t++ {
		total += coupon / math.Pow(1+y/m, float64(t))
	}
	total += c.inst.FaceValue / math.Pow(1+y/m, c.inst.YearsToMaturity*m)
	return total
}

// dnpv is the derivative of npv with respect to y.
func (c *Calculator) dnpv(y float64) float64 {
	m := float64(c.inst.PaymentFrequency)
	coupon := c.inst.FaceValue * c.inst.CouponRate / m
	periods := int(c.inst.YearsToMaturity * m)

	var total float64
	for t := 1; t <= periods; t++ {
		total -= float64(t) / m * coupon / math.Pow(1+y/m, float64(t)+1)
	}
	finalT := c.inst.YearsToMaturity * m
	total -= finalT / m * c.inst.FaceValue / math.Pow(1+y/m, finalT+1)
	return total
}

// YieldToMaturity solves npv(y) = 0 with Newton iteration, falling back to
// bisection when Newton leaves the valid yield range or stalls. npv is
// strictly decreasing in y, so bisection on a bracketing interval always
// converges.
func (c *Calculator) YieldToMaturity() float64 {
	y := ytmInitialGuess
	for i := 0; i < ytmMaxIter; i++ {
		f := c.npv(y)
		if math.Abs(f) < ytmTolerance {
			return y
		}
		d := c.dnpv(y)
		if d == 0 {
			break
		}
		next := y - f/d
		if next <= -0.99 || next > 10 || math.IsNaN(next) {
			break
		}
		y = next
	}

	// Bisection fallback over a wide yield bracket.
	lo, hi := -0.99, 10.0
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if c.npv(mid) > 0 {
			// Price too low at this yield: the root lies at a higher yield.
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// Durations computes the Macaulay and modified durations in years at the
// instrument's yield to maturity.
func (c *Calculator) Durations() (macaulay, modified float64) {
	ytm := c.YieldToMaturity()
	m := float64(c.inst.PaymentFrequency)
	coupon := c.inst.FaceValue * c.inst.CouponRate / m
	periods := int(c.inst.YearsToMaturity * m)

	var totalPV, weightedPV float64
	for t := 1; t <= periods; t++ {
		pv := coupon / math.Pow(1+ytm/m, float64(t))
		totalPV += pv
		weightedPV += float64(t) / m * pv
	}
	finalPV := c.inst.FaceValue / math.Pow(1+ytm/m, c.inst.YearsToMaturity*m)
	totalPV += finalPV
	weightedPV += c.inst.YearsToMaturity * finalPV

	macaulay = weightedPV / totalPV
	modified = macaulay / (1 + ytm/m)
	return macaulay, modified
}

// Convexity computes the bond's convexity at its yield to maturity.
func (c *Calculator) Convexity() float64 {
	ytm := c.YieldToMaturity()
	m := float64(c.inst.PaymentFrequency)
	coupon := c.inst.FaceValue * c.inst.CouponRate / m
	periods := int(c.inst.YearsToMaturity * m)

	var total float64
	for t := 1; t <= periods; t++ {
		tYears := float64(t) / m
		pvFactor := 1 / math.Pow(1+ytm/m, float64(t))
		total += tYears * (tYears + 1) * coupon * pvFactor
	}
	finalT := c.inst.YearsToMaturity
	finalPVFactor := 1 / math.Pow(1+ytm/m, finalT*m)
	total += finalT * (finalT + 1) * c.inst.FaceValue * finalPVFactor

	return total / (math.Pow(1+ytm/m, 2) * c.inst.CurrentPrice)
}

// Analytics computes the full set of figures for the instrument.
func (c *Calculator) Analytics() Analytics {
	ytm := c.YieldToMaturity()
	mac, mod := c.Durations()
	return Analytics{
		YieldToMaturity:  ytm,
		MacaulayDuration: mac,
		ModifiedDuration: mod,
		Convexity:        c.Convexity(),
	}
}
