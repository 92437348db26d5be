// Package hedging evaluates discrete delta hedging of a European option
// against a simulated spot path.
package hedging

import (
	"io"
	"math"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/greeks"
	"bsm-engine/internal/models"
)

// Evaluate builds the rebalancing ledger of a hedge on nShares options.
//
// At grid point i the hedge holds nShares*Delta_i shares, where Delta_i is
// evaluated at the path spot with tau = maturity - t_i. The trade at i is
// nShares*(Delta_i - Delta_{i-1}) with Delta_{-1} = 0, costing trade*spot_i.
// Neither the path nor the parameters are modified.
func Evaluate(path models.PricePath, p models.ParameterSet, optType models.OptionType, nShares int) (models.HedgingLedger, error) {
	if err := p.Validate(); err != nil {
		return models.HedgingLedger{}, err
	}
	if err := optType.Validate(); err != nil {
		return models.HedgingLedger{}, err
	}
	if nShares < 0 {
		return models.HedgingLedger{}, apperrors.NewValidationError("shares", nShares, "must not be negative")
	}
	if err := validatePath(path); err != nil {
		return models.HedgingLedger{}, err
	}

	n := float64(nShares)
	rows := make([]models.HedgeRow, len(path.Spots))
	total := decimal.Zero
	var prevDelta, cumulative float64

	for i, spot := range path.Spots {
		t := path.Times[i]
		delta := greeks.Delta(p, spot, p.Maturity-t, optType)
		traded := n * (delta - prevDelta)
		cost := traded * spot
		cumulative += cost
		total = total.Add(decimal.NewFromFloat(cost))

		rows[i] = models.HedgeRow{
			Period:          i,
			Time:            t,
			StockPrice:      spot,
			Delta:           delta,
			SharesPurchased: traded,
			Cost:            cost,
			CumulativeCost:  cumulative,
		}
		prevDelta = delta
	}

	return models.HedgingLedger{
		OptionType:  optType,
		Shares:      nShares,
		Rows:        rows,
		TotalShares: n * prevDelta,
		TotalCost:   total.Round(2),
	}, nil
}

func validatePath(path models.PricePath) error {
	if len(path.Spots) == 0 {
		return apperrors.NewValidationError("price_path", 0, "must contain at least one point")
	}
	if len(path.Spots) != len(path.Times) {
		return apperrors.NewValidationError("time_grid", len(path.Times), "must have one time per spot")
	}
	for i, s := range path.Spots {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return apperrors.NewValidationError("price_path", s, "spots must be non-negative and finite")
		}
		t := path.Times[i]
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return apperrors.NewValidationError("time_grid", t, "times must be non-negative and finite")
		}
	}
	return nil
}

// WriteCSV writes the ledger rows with a header line.
func WriteCSV(w io.Writer, ledger models.HedgingLedger) error {
	return gocsv.Marshal(ledger.Rows, w)
}
