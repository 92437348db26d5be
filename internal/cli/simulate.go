package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bsm-engine/internal/models"
)

func addSimulationCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSimulateCmd(app))
}

// EnsembleSummary describes the terminal spots of an ensemble.
type EnsembleSummary struct {
	Paths     int       `json:"paths"`
	Steps     int       `json:"steps"`
	Seed      uint64    `json:"first_seed"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	FinalSpot []float64 `json:"final_spots"`
}

func summarizeEnsemble(paths []models.PricePath) EnsembleSummary {
	finals := make([]float64, len(paths))
	for i, p := range paths {
		finals[i] = p.Last()
	}
	return EnsembleSummary{
		Paths:     len(paths),
		Steps:     paths[0].Steps(),
		Seed:      paths[0].Seed,
		Mean:      stat.Mean(finals, nil),
		StdDev:    stat.StdDev(finals, nil),
		Min:       floats.Min(finals),
		Max:       floats.Max(finals),
		FinalSpot: finals,
	}
}

func newSimulateCmd(app *App) *cobra.Command {
	var (
		timescale string
		steps     int
		seed      uint64
		paths     int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a geometric Brownian motion spot path",
		Long: `Simulate a spot path from the contract bound to the session and store it
for the hedge command. Without --seed a fresh seed is drawn and printed so the
path can be reproduced. With --paths > 1 an ensemble is summarized instead and
nothing is stored.`,
		Example: `  bsm simulate --timescale weekly --steps 20 --seed 2024
  bsm simulate --paths 1000 --steps 252`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ts, err := models.ParseTimescale(timescale)
			if err != nil {
				return err
			}
			var seedPtr *uint64
			if cmd.Flags().Changed("seed") {
				seedPtr = &seed
			}
			session := sessionOf(cmd)

			if paths > 1 {
				ensemble, err := app.Engine.SimulateEnsemble(cmd.Context(), session, ts, steps, paths, seedPtr)
				if err != nil {
					return err
				}
				summary := summarizeEnsemble(ensemble)
				if output.IsJSON() {
					return output.JSON(summary)
				}
				output.Box(fmt.Sprintf("Ensemble of %d paths  ·  %d %s steps", summary.Paths, summary.Steps, ts.PeriodName()), []string{
					fmt.Sprintf("Seeds        %d..%d", summary.Seed, summary.Seed+uint64(summary.Paths)-1),
					fmt.Sprintf("Mean final   %s", FormatPrice(summary.Mean)),
					fmt.Sprintf("Std dev      %s", FormatPrice(summary.StdDev)),
					fmt.Sprintf("Min / Max    %s / %s", FormatPrice(summary.Min), FormatPrice(summary.Max)),
				})
				return nil
			}

			path, err := app.Engine.Simulate(cmd.Context(), session, ts, steps, seedPtr)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(path)
			}

			output.Bold("Simulated path  ·  %d %s steps  ·  seed %d", path.Steps(), ts.PeriodName(), path.Seed)
			table := NewTable(output, ts.PeriodName(), "Time", "Spot")
			for i, spot := range path.Spots {
				table.AddRow(fmt.Sprintf("%d", i), FormatYears(path.Times[i]), FormatPrice(spot))
			}
			table.Render()
			return nil
		},
	}

	d := app.Config.Defaults
	cmd.Flags().StringVar(&timescale, "timescale", d.Timescale, "step size: daily, weekly or yearly")
	cmd.Flags().IntVarP(&steps, "steps", "n", d.Steps, "number of steps")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed (default: random)")
	cmd.Flags().IntVar(&paths, "paths", 1, "number of paths; more than one summarizes an ensemble")
	return cmd
}
