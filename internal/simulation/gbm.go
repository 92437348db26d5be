// Package simulation generates geometric Brownian motion spot paths.
package simulation

import (
	"fmt"
	"math"

	"github.com/sourcegraph/conc"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
)

// TimeGrid returns steps+1 points spaced by the timescale, starting at zero.
// The span is steps*scale years and is not clamped to the option maturity.
func TimeGrid(ts models.Timescale, steps int) ([]float64, error) {
	if steps < 0 {
		return nil, apperrors.NewValidationError("steps", steps, "must not be negative")
	}
	scale, err := ts.Scale()
	if err != nil {
		return nil, err
	}

	grid := make([]float64, steps+1)
	for i := range grid {
		grid[i] = float64(i) * scale
	}
	return grid, nil
}

// BrownianPath draws a discretized Wiener process on the grid using the
// Euler-Maruyama scheme: W is the cumulative sum of N(0, dt_i) increments
// with dt_0 = 0, so W starts at zero.
func BrownianPath(grid []float64, src rand.Source) []float64 {
	increments := make([]float64, len(grid))
	for i := 1; i < len(grid); i++ {
		dt := grid[i] - grid[i-1]
		increments[i] = distuv.Normal{Mu: 0, Sigma: math.Sqrt(dt), Src: src}.Rand()
	}
	return floats.CumSum(make([]float64, len(grid)), increments)
}

// Simulate generates one GBM sample path
//
//	S_t = S_0 * exp((r - sigma^2/2)*t + sigma*W_t)
//
// from a generator seeded with seed. Equal inputs give bit-identical paths.
func Simulate(p models.ParameterSet, ts models.Timescale, steps int, seed uint64) (models.PricePath, error) {
	if err := p.Validate(); err != nil {
		return models.PricePath{}, err
	}
	grid, err := TimeGrid(ts, steps)
	if err != nil {
		return models.PricePath{}, err
	}

	w := BrownianPath(grid, rand.NewSource(seed))
	drift := p.RiskFreeRate - 0.5*p.Volatility*p.Volatility

	spots := make([]float64, len(grid))
	for i, t := range grid {
		spots[i] = p.Spot * math.Exp(drift*t+p.Volatility*w[i])
		if math.IsInf(spots[i], 0) || math.IsNaN(spots[i]) {
			return models.PricePath{}, apperrors.NewValidationError("steps", steps,
				fmt.Sprintf("path overflows at step %d; use fewer steps, a shorter timescale or a lower rate", i))
		}
	}

	return models.PricePath{
		Timescale: ts,
		Seed:      seed,
		Times:     grid,
		Spots:     spots,
	}, nil
}

// SimulateEnsemble generates several independent paths concurrently. Path i is
// seeded with seed+i, so the result is reproducible and ordered.
func SimulateEnsemble(p models.ParameterSet, ts models.Timescale, steps, paths int, seed uint64) ([]models.PricePath, error) {
	if paths < 1 {
		return nil, apperrors.NewValidationError("paths", paths, "must be at least 1")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := TimeGrid(ts, steps); err != nil {
		return nil, err
	}

	out := make([]models.PricePath, paths)
	errs := make([]error, paths)
	var wg conc.WaitGroup
	for i := 0; i < paths; i++ {
		i := i
		wg.Go(func() {
			out[i], errs[i] = Simulate(p, ts, steps, seed+uint64(i))
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, apperrors.Wrapf(err, "path %d", i)
		}
	}
	return out, nil
}
