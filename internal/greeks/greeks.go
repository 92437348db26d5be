// Package greeks computes Black-Scholes-Merton sensitivities over a time grid.
//
// Every function takes elapsed time on the grid and evaluates the option with
// the time remaining to maturity, so values approach their expiry limits as
// elapsed time grows. Expired or degenerate points (tau <= 0, or sigma*sqrt(tau)
// underflowing to zero) resolve to explicit limit values instead of failing.
package greeks

import (
	"math"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
	"bsm-engine/internal/pricing"
)

// DefaultPoints is the size of the grid used when none is supplied.
const DefaultPoints = 50

// DefaultGrid returns n evenly spaced elapsed times from 0 to maturity.
func DefaultGrid(maturity float64, n int) ([]float64, error) {
	if maturity <= 0 || math.IsNaN(maturity) || math.IsInf(maturity, 0) {
		return nil, apperrors.NewValidationError("maturity", maturity, "must be positive")
	}
	return pricing.Linspace(0, maturity, n)
}

// Compute evaluates all five Greeks at each elapsed time of grid, with the
// spot held at p.Spot. Points are independent of each other.
func Compute(p models.ParameterSet, grid []float64, optType models.OptionType) (models.GreeksSeries, error) {
	if err := p.Validate(); err != nil {
		return models.GreeksSeries{}, err
	}
	if err := optType.Validate(); err != nil {
		return models.GreeksSeries{}, err
	}
	if err := validateGrid(grid); err != nil {
		return models.GreeksSeries{}, err
	}

	series := models.GreeksSeries{
		OptionType: optType,
		Points:     make([]models.GreeksPoint, len(grid)),
	}
	for i, t := range grid {
		tau := p.Maturity - t
		series.Points[i] = models.GreeksPoint{
			Time:      t,
			Remaining: tau,
			Greeks:    At(p, p.Spot, tau, optType),
		}
	}
	return series, nil
}

func validateGrid(grid []float64) error {
	for _, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return apperrors.NewValidationError("time_grid", t, "must be finite")
		}
		if t < 0 {
			return apperrors.NewValidationError("time_grid", t, "elapsed time must not be negative")
		}
	}
	return nil
}

// At returns the Greeks of one option at the given spot and time remaining.
// p supplies strike, rate and volatility; p.Spot and p.Maturity are ignored.
func At(p models.ParameterSet, spot, tau float64, optType models.OptionType) models.Greeks {
	sigma := p.Volatility
	volSqrtT := sigma * math.Sqrt(math.Max(tau, 0))
	if tau <= 0 || volSqrtT == 0 {
		return expiryLimit(p, spot, optType)
	}
	if spot <= 0 {
		return absorbed(p, tau, optType)
	}

	r, k := p.RiskFreeRate, p.Strike
	d1, d2 := pricing.D(spot, k, r, sigma, tau)
	pdf := pricing.NormPDF(d1)
	discount := math.Exp(-r * tau)

	g := models.Greeks{
		Gamma: pdf / (spot * volSqrtT),
		Vega:  spot * pdf * math.Sqrt(tau),
	}
	decay := -(spot * pdf * sigma) / (2 * math.Sqrt(tau))

	switch optType {
	case models.OptionTypePut:
		g.Delta = pricing.NormCDF(d1) - 1
		g.Theta = decay + r*k*discount*pricing.NormCDF(-d2)
		g.Rho = -k * tau * discount * pricing.NormCDF(-d2)
	default:
		g.Delta = pricing.NormCDF(d1)
		g.Theta = decay - r*k*discount*pricing.NormCDF(d2)
		g.Rho = k * tau * discount * pricing.NormCDF(d2)
	}
	return g
}

// Delta returns only the Delta of At.
func Delta(p models.ParameterSet, spot, tau float64, optType models.OptionType) float64 {
	return At(p, spot, tau, optType).Delta
}

// absorbed returns the Greeks at a spot of zero, where GBM stays forever:
// the call is worthless and the put is a discounted strike.
func absorbed(p models.ParameterSet, tau float64, optType models.OptionType) models.Greeks {
	if optType != models.OptionTypePut {
		return models.Greeks{}
	}
	pv := p.Strike * math.Exp(-p.RiskFreeRate*tau)
	return models.Greeks{
		Delta: -1,
		Theta: p.RiskFreeRate * pv,
		Rho:   -tau * pv,
	}
}

// expiryLimit is the tau -> 0+ limit. At the money the call Delta tends to 1/2
// and the diverging Gamma and decay terms are reported as zero.
func expiryLimit(p models.ParameterSet, spot float64, optType models.OptionType) models.Greeks {
	var itm float64 // probability weight of finishing in the money for a call
	switch {
	case spot > p.Strike:
		itm = 1
	case spot == p.Strike:
		itm = 0.5
	}

	rk := p.RiskFreeRate * p.Strike
	if optType == models.OptionTypePut {
		return models.Greeks{
			Delta: itm - 1,
			Theta: rk * (1 - itm),
		}
	}
	return models.Greeks{
		Delta: itm,
		Theta: -rk * itm,
	}
}
