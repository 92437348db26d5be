package pricing

import (
	"gonum.org/v1/gonum/floats"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
)

// PriceSurface holds call and put prices over a spot x volatility grid.
// Calls[i][j] is priced at Vols[i] and Spots[j].
type PriceSurface struct {
	Spots []float64   `json:"spots"`
	Vols  []float64   `json:"vols"`
	Calls [][]float64 `json:"calls"`
	Puts  [][]float64 `json:"puts"`
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, apperrors.NewValidationError("points", n, "must be at least 1")
	case n == 1:
		return []float64{lo}, nil
	}
	xs := floats.Span(make([]float64, n), lo, hi)
	// Span accumulates rounding; pin the endpoint so a grid ending at maturity
	// reaches tau == 0 exactly.
	xs[n-1] = hi
	return xs, nil
}

// Surface prices the option over every (vol, spot) pair keeping strike,
// maturity and rate from p.
func Surface(p models.ParameterSet, spots, vols []float64) (PriceSurface, error) {
	if err := p.Validate(); err != nil {
		return PriceSurface{}, err
	}
	if len(spots) == 0 || len(vols) == 0 {
		return PriceSurface{}, apperrors.NewValidationError("grid", len(spots)*len(vols), "spot and volatility ranges must not be empty")
	}

	surface := PriceSurface{
		Spots: spots,
		Vols:  vols,
		Calls: make([][]float64, len(vols)),
		Puts:  make([][]float64, len(vols)),
	}
	for i, vol := range vols {
		surface.Calls[i] = make([]float64, len(spots))
		surface.Puts[i] = make([]float64, len(spots))
		for j, spot := range spots {
			q, err := Price(p.WithSpot(spot).WithVolatility(vol))
			if err != nil {
				return PriceSurface{}, err
			}
			surface.Calls[i][j] = q.CallPrice
			surface.Puts[i][j] = q.PutPrice
		}
	}
	return surface, nil
}
