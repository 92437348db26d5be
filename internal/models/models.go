// Package models provides domain models for the option pricing engine.
package models

import (
	"math"
	"strings"
	"time"

	apperrors "bsm-engine/internal/errors"
)

// OptionType represents the right carried by a European option.
type OptionType string

const (
	OptionTypeCall OptionType = "Call"
	OptionTypePut  OptionType = "Put"
)

// ParseOptionType converts user input into an OptionType.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c", "ce":
		return OptionTypeCall, nil
	case "put", "p", "pe":
		return OptionTypePut, nil
	default:
		return "", apperrors.NewValidationError("option_type", s, "must be Call or Put")
	}
}

// Validate returns an ArgumentError for anything but Call and Put.
func (o OptionType) Validate() error {
	switch o {
	case OptionTypeCall, OptionTypePut:
		return nil
	default:
		return apperrors.NewValidationError("option_type", string(o), "must be Call or Put")
	}
}

func (o OptionType) String() string {
	return string(o)
}

// UnmarshalText accepts any spelling ParseOptionType accepts.
func (o *OptionType) UnmarshalText(text []byte) error {
	v, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Timescale represents the spacing of a simulation time grid.
type Timescale string

const (
	TimescaleDaily  Timescale = "Daily"
	TimescaleWeekly Timescale = "Weekly"
	TimescaleYearly Timescale = "Yearly"
)

// Trading periods per year.
const (
	TradingDaysPerYear  = 252
	TradingWeeksPerYear = 52
)

// ParseTimescale converts user input into a Timescale.
func ParseTimescale(s string) (Timescale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return TimescaleDaily, nil
	case "weekly", "week", "w":
		return TimescaleWeekly, nil
	case "yearly", "year", "y":
		return TimescaleYearly, nil
	default:
		return "", apperrors.NewValidationError("timescale", s, "must be Daily, Weekly or Yearly")
	}
}

// Scale returns the grid spacing in years.
func (t Timescale) Scale() (float64, error) {
	switch t {
	case TimescaleDaily:
		return 1.0 / TradingDaysPerYear, nil
	case TimescaleWeekly:
		return 1.0 / TradingWeeksPerYear, nil
	case TimescaleYearly:
		return 1.0, nil
	default:
		return 0, apperrors.NewValidationError("timescale", string(t), "must be Daily, Weekly or Yearly")
	}
}

// PeriodName returns the singular name of one grid step.
func (t Timescale) PeriodName() string {
	switch t {
	case TimescaleDaily:
		return "Day"
	case TimescaleWeekly:
		return "Week"
	case TimescaleYearly:
		return "Year"
	default:
		return "Period"
	}
}

func (t Timescale) String() string {
	return string(t)
}

// UnmarshalText accepts any spelling ParseTimescale accepts.
func (t *Timescale) UnmarshalText(text []byte) error {
	v, err := ParseTimescale(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParameterSet holds the five Black-Scholes-Merton inputs.
// Rates and volatility are decimal fractions (0.05 = 5%), maturity is in years.
type ParameterSet struct {
	Spot         float64 `json:"spot"`
	Strike       float64 `json:"strike"`
	Maturity     float64 `json:"maturity"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	Volatility   float64 `json:"volatility"`
}

// NewParameterSet builds a validated ParameterSet.
func NewParameterSet(spot, strike, maturity, riskFreeRate, volatility float64) (ParameterSet, error) {
	p := ParameterSet{
		Spot:         spot,
		Strike:       strike,
		Maturity:     maturity,
		RiskFreeRate: riskFreeRate,
		Volatility:   volatility,
	}
	if err := p.Validate(); err != nil {
		return ParameterSet{}, err
	}
	return p, nil
}

// Validate checks every field. The zero value is invalid.
func (p ParameterSet) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"maturity", p.Maturity},
		{"volatility", p.Volatility},
	}
	for _, f := range positive {
		if !isFinite(f.value) {
			return apperrors.NewValidationError(f.name, f.value, "must be a finite number")
		}
		if f.value <= 0 {
			return apperrors.NewValidationError(f.name, f.value, "must be positive")
		}
	}
	if !isFinite(p.RiskFreeRate) {
		return apperrors.NewValidationError("risk_free_rate", p.RiskFreeRate, "must be a finite number")
	}
	return nil
}

// DiscountFactor returns e^(-r*tau).
func (p ParameterSet) DiscountFactor(tau float64) float64 {
	return math.Exp(-p.RiskFreeRate * tau)
}

// WithSpot returns a copy with a different spot.
func (p ParameterSet) WithSpot(spot float64) ParameterSet {
	p.Spot = spot
	return p
}

// WithVolatility returns a copy with a different volatility.
func (p ParameterSet) WithVolatility(vol float64) ParameterSet {
	p.Volatility = vol
	return p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Snapshot is the last computed model of one session.
type Snapshot struct {
	SessionID string       `json:"session_id"`
	Params    ParameterSet `json:"params"`
	Path      *PricePath   `json:"path,omitempty"`
	SavedAt   time.Time    `json:"saved_at"`
}
