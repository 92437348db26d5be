package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bsm-engine/internal/models"
	"bsm-engine/internal/pricing"
)

func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newSurfaceCmd(app))
}

type priceResult struct {
	Session string               `json:"session"`
	Params  models.ParameterSet  `json:"params"`
	Quote   models.AnalyticQuote `json:"quote"`
}

func newPriceCmd(app *App) *cobra.Command {
	var contract contractFlags

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European call and put",
		Long: `Price a European call and put under Black-Scholes-Merton and bind the
contract to the session for later simulate and hedge commands.`,
		Example: `  bsm price --spot 100 --strike 100 --maturity 1 --rate 0.05 --vol-pct 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			p, err := contract.params(cmd)
			if err != nil {
				return err
			}

			session := sessionOf(cmd)
			q, err := app.Engine.Quote(cmd.Context(), session, p)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(priceResult{Session: session, Params: p, Quote: q})
			}

			callFloor, putFloor := pricing.IntrinsicBounds(p)
			output.Box(fmt.Sprintf("European option  ·  session %s", session), []string{
				fmt.Sprintf("Spot %s   Strike %s   T %s", FormatPrice(p.Spot), FormatPrice(p.Strike), FormatYears(p.Maturity)),
				fmt.Sprintf("r %s   σ %s", FormatPercent(p.RiskFreeRate), FormatPercent(p.Volatility)),
				"",
				fmt.Sprintf("d1          %s", FormatGreek(q.D1)),
				fmt.Sprintf("d2          %s", FormatGreek(q.D2)),
				fmt.Sprintf("Call        %s", output.Cyan(FormatPrice(q.CallPrice))),
				fmt.Sprintf("Put         %s", output.Cyan(FormatPrice(q.PutPrice))),
				"",
				fmt.Sprintf("Call floor  %s", FormatPrice(callFloor)),
				fmt.Sprintf("Put floor   %s", FormatPrice(putFloor)),
			})
			return nil
		},
	}

	addContractFlags(cmd, &contract, app.Config.Defaults)
	return cmd
}

func newSurfaceCmd(app *App) *cobra.Command {
	var (
		contract  contractFlags
		spotMin   float64
		spotMax   float64
		spotSteps int
		volMin    float64
		volMax    float64
		volSteps  int
		typeName  string
	)

	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Price the option over a spot and volatility grid",
		Long: `Price the option at every combination of evenly spaced spots and
volatilities, keeping strike, maturity and rate fixed. Rows are volatilities
and columns are spots.`,
		Example: `  bsm surface --strike 100 --spot-min 80 --spot-max 120 --vol-min 0.1 --vol-max 0.5 --type put`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			p, err := contract.params(cmd)
			if err != nil {
				return err
			}
			optType, err := models.ParseOptionType(typeName)
			if err != nil {
				return err
			}
			spots, err := pricing.Linspace(spotMin, spotMax, spotSteps)
			if err != nil {
				return err
			}
			vols, err := pricing.Linspace(volMin, volMax, volSteps)
			if err != nil {
				return err
			}

			surface, err := app.Engine.Surface(p, spots, vols)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(surface)
			}

			grid := surface.Calls
			if optType == models.OptionTypePut {
				grid = surface.Puts
			}

			headers := []string{"σ \\ S"}
			for _, s := range spots {
				headers = append(headers, FormatPrice(s))
			}
			table := NewTable(output, headers...)
			for i, v := range vols {
				row := []string{FormatPercent(v)}
				for _, price := range grid[i] {
					row = append(row, FormatPrice(price))
				}
				table.AddRow(row...)
			}

			output.Bold("%s prices  ·  K %s  T %s  r %s", optType, FormatPrice(p.Strike), FormatYears(p.Maturity), FormatPercent(p.RiskFreeRate))
			table.Render()
			return nil
		},
	}

	addContractFlags(cmd, &contract, app.Config.Defaults)
	d := app.Config.Defaults
	cmd.Flags().Float64Var(&spotMin, "spot-min", d.Spot*0.8, "lowest spot")
	cmd.Flags().Float64Var(&spotMax, "spot-max", d.Spot*1.2, "highest spot")
	cmd.Flags().IntVar(&spotSteps, "spot-steps", 9, "number of spots")
	cmd.Flags().Float64Var(&volMin, "vol-min", 0.1, "lowest volatility as a decimal fraction")
	cmd.Flags().Float64Var(&volMax, "vol-max", 0.5, "highest volatility as a decimal fraction")
	cmd.Flags().IntVar(&volSteps, "vol-steps", 9, "number of volatilities")
	cmd.Flags().StringVarP(&typeName, "type", "t", d.OptionType, "option type (call/put)")
	return cmd
}
