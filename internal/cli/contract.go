package cli

import (
	"github.com/spf13/cobra"

	"bsm-engine/internal/config"
	"bsm-engine/internal/models"
)

// contractFlags holds the five contract inputs shared by several commands.
type contractFlags struct {
	spot     float64
	strike   float64
	maturity float64
	rate     float64
	vol      float64
	volPct   float64
}

func addContractFlags(cmd *cobra.Command, f *contractFlags, d config.DefaultsConfig) {
	cmd.Flags().Float64Var(&f.spot, "spot", d.Spot, "underlying spot price")
	cmd.Flags().Float64Var(&f.strike, "strike", d.Strike, "strike price")
	cmd.Flags().Float64Var(&f.maturity, "maturity", d.Maturity, "time to maturity in years")
	cmd.Flags().Float64Var(&f.rate, "rate", d.RiskFreeRate, "risk-free rate as a decimal fraction")
	cmd.Flags().Float64Var(&f.vol, "vol", d.Volatility, "volatility as a decimal fraction")
	cmd.Flags().Float64Var(&f.volPct, "vol-pct", 0, "volatility in percent (overrides --vol)")
}

// params converts the flags to a validated ParameterSet.
func (f *contractFlags) params(cmd *cobra.Command) (models.ParameterSet, error) {
	vol := f.vol
	if cmd.Flags().Changed("vol-pct") {
		vol = f.volPct / 100
	}
	return models.NewParameterSet(f.spot, f.strike, f.maturity, f.rate, vol)
}

// anyContractFlagChanged reports whether any contract flag was given explicitly.
func anyContractFlagChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"spot", "strike", "maturity", "rate", "vol", "vol-pct"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
