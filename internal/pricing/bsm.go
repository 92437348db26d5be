// Package pricing provides closed-form Black-Scholes-Merton pricing of European options.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"bsm-engine/internal/models"
)

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// D1D2 computes the standardized distances d1 and d2 over the full maturity.
func D1D2(p models.ParameterSet) (d1, d2 float64, err error) {
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	d1, d2 = D(p.Spot, p.Strike, p.RiskFreeRate, p.Volatility, p.Maturity)
	return d1, d2, nil
}

// D computes d1 and d2 without validation. Callers guarantee spot, strike,
// sigma and tau are positive.
func D(spot, strike, r, sigma, tau float64) (d1, d2 float64) {
	volSqrtT := sigma * math.Sqrt(tau)
	d1 = (math.Log(spot/strike) + (r+0.5*sigma*sigma)*tau) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

// Price computes d1, d2 and both call and put prices.
//
//	call = S*N(d1) - K*e^(-rT)*N(d2)
//	put  = K*e^(-rT)*N(-d2) - S*N(-d1)
func Price(p models.ParameterSet) (models.AnalyticQuote, error) {
	d1, d2, err := D1D2(p)
	if err != nil {
		return models.AnalyticQuote{}, err
	}

	discounted := p.Strike * p.DiscountFactor(p.Maturity)
	call := p.Spot*NormCDF(d1) - discounted*NormCDF(d2)
	put := discounted*NormCDF(-d2) - p.Spot*NormCDF(-d1)

	return models.AnalyticQuote{
		D1:        d1,
		D2:        d2,
		CallPrice: call,
		PutPrice:  put,
	}, nil
}

// OptionPrice returns the price of a single option type.
func OptionPrice(p models.ParameterSet, optType models.OptionType) (float64, error) {
	if err := optType.Validate(); err != nil {
		return 0, err
	}
	q, err := Price(p)
	if err != nil {
		return 0, err
	}
	return q.Price(optType), nil
}

// IntrinsicBounds returns the no-arbitrage lower bounds of the call and the put.
func IntrinsicBounds(p models.ParameterSet) (callFloor, putFloor float64) {
	forwardStrike := p.Strike * p.DiscountFactor(p.Maturity)
	return math.Max(0, p.Spot-forwardStrike), math.Max(0, forwardStrike-p.Spot)
}
