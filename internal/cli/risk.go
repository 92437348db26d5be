package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/greeks"
	"bsm-engine/internal/hedging"
	"bsm-engine/internal/models"
)

func addRiskCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newHedgeCmd(app))
}

func newGreeksCmd(app *App) *cobra.Command {
	var (
		contract contractFlags
		typeName string
		points   int
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Compute Delta, Gamma, Theta, Vega and Rho over time",
		Long: `Compute the five Greeks at evenly spaced elapsed times from inception to
maturity with the spot held fixed. Contract flags describe the option; when
none is given the contract bound to the session is used.`,
		Example: `  bsm greeks --type put --points 20
  bsm greeks --spot 100 --strike 105 --csv greeks.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			optType, err := models.ParseOptionType(typeName)
			if err != nil {
				return err
			}

			var series models.GreeksSeries
			if anyContractFlagChanged(cmd) {
				p, err := contract.params(cmd)
				if err != nil {
					return err
				}
				grid, err := greeks.DefaultGrid(p.Maturity, points)
				if err != nil {
					return err
				}
				series, err = app.Engine.Greeks(p.Spot, p.Strike, p.Maturity, p.RiskFreeRate, p.Volatility, grid, optType)
				if err != nil {
					return err
				}
			} else {
				series, err = app.Engine.SessionGreeks(cmd.Context(), sessionOf(cmd), nil, points, optType)
				if err != nil {
					return err
				}
			}

			if csvPath == "-" {
				return greeks.WriteCSV(output.Writer(), series)
			}
			if csvPath != "" {
				if err := writeFile(csvPath, func(w io.Writer) error { return greeks.WriteCSV(w, series) }); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Success("✓ Wrote %d rows to %s", len(series.Points), csvPath)
				}
			}

			if output.IsJSON() {
				return output.JSON(series)
			}

			output.Bold("%s Greeks over time", series.OptionType)
			table := NewTable(output, "Elapsed", "Remaining", "Delta", "Gamma", "Theta", "Vega", "Rho")
			for _, pt := range series.Points {
				table.AddRow(
					FormatYears(pt.Time),
					FormatYears(pt.Remaining),
					FormatGreek(pt.Delta),
					FormatGreek(pt.Gamma),
					FormatGreek(pt.Theta),
					FormatGreek(pt.Vega),
					FormatGreek(pt.Rho),
				)
			}
			table.Render()
			return nil
		},
	}

	d := app.Config.Defaults
	addContractFlags(cmd, &contract, d)
	cmd.Flags().StringVarP(&typeName, "type", "t", d.OptionType, "option type (call/put)")
	cmd.Flags().IntVar(&points, "points", d.GreeksPoints, "number of grid points")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the series to this CSV file (- for stdout only)")
	return cmd
}

type hedgeResult struct {
	Session string               `json:"session"`
	Params  models.ParameterSet  `json:"params"`
	Ledger  models.HedgingLedger `json:"ledger"`
}

func newHedgeCmd(app *App) *cobra.Command {
	var (
		typeName string
		shares   int
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:   "hedge",
		Short: "Evaluate discrete delta hedging on the session's last path",
		Long: `Rebalance a delta hedge at every point of the session's last simulated
path and report the shares traded, the cost of each trade and the running
total. Positive costs are purchases, negative costs are sale proceeds.`,
		Example: `  bsm price --spot 49 --strike 50 --maturity 0.3846 --vol 0.2
  bsm simulate --timescale weekly --steps 20
  bsm hedge --shares 100000 --csv ledger.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			optType, err := models.ParseOptionType(typeName)
			if err != nil {
				return err
			}

			session := sessionOf(cmd)
			ledger, err := app.Engine.Hedge(cmd.Context(), session, optType, shares)
			if err != nil {
				return err
			}

			if csvPath == "-" {
				return hedging.WriteCSV(output.Writer(), ledger)
			}
			if csvPath != "" {
				if err := writeFile(csvPath, func(w io.Writer) error { return hedging.WriteCSV(w, ledger) }); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Success("✓ Wrote %d rows to %s", len(ledger.Rows), csvPath)
				}
			}

			snap, err := app.Engine.Snapshot(cmd.Context(), session)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(hedgeResult{Session: session, Params: snap.Params, Ledger: ledger})
			}

			output.Bold("Delta hedge of %d %s options", ledger.Shares, ledger.OptionType)
			table := NewTable(output, "Period", "Stock Price", "Delta", "Shares Purchased", "Cost", "Cumulative Cost")
			for _, row := range ledger.Rows {
				table.AddRow(
					fmt.Sprintf("%d", row.Period),
					FormatPrice(row.StockPrice),
					FormatGreek(row.Delta),
					FormatShares(row.SharesPurchased),
					output.Signed(row.Cost, FormatAmount(row.Cost)),
					FormatAmount(row.CumulativeCost),
				)
			}
			table.Render()
			output.Println()
			output.Printf("Final position:  %s shares\n", FormatShares(ledger.TotalShares))
			output.Printf("Total cost:      %s\n", output.BoldText(FormatMoney(ledger.TotalCost)))

			if n := len(ledger.Rows); n > 0 && ledger.Rows[n-1].Time > snap.Params.Maturity {
				output.Println()
				output.Warning("Path runs %s past maturity; Delta is held at its expiry value there",
					FormatYears(ledger.Rows[n-1].Time-snap.Params.Maturity))
			}
			return nil
		},
	}

	d := app.Config.Defaults
	cmd.Flags().StringVarP(&typeName, "type", "t", d.OptionType, "option type (call/put)")
	cmd.Flags().IntVar(&shares, "shares", d.Shares, "number of options hedged")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the ledger to this CSV file (- for stdout only)")
	return cmd
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, "creating %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return apperrors.Wrapf(err, "writing %s", path)
	}
	return apperrors.Wrap(f.Close(), "closing "+path)
}
