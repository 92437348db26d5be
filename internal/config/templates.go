package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# BSM Engine Configuration

[defaults]
# Underlying spot price
spot = 100.0
# Strike price
strike = 100.0
# Time to maturity in years
maturity = 1.0
# Continuously compounded risk-free rate as a decimal fraction (0.05 = 5%)
risk_free_rate = 0.05
# Annualized volatility as a decimal fraction (0.20 = 20%)
volatility = 0.20
# Option type: Call, Put
option_type = "Call"
# Simulation step size: Daily (1/252), Weekly (1/52), Yearly (1)
timescale = "Daily"
# Number of simulation steps
steps = 252
# Options covered by the hedge
shares = 100
# Points on the Greeks time grid
greeks_points = 50

[store]
# Session store: "sqlite" or "memory"
driver = "sqlite"
# Database file; empty means sessions.db next to this file
path = ""

[log]
# Level: debug, info, warn, error
level = "info"
# Mirror log lines to stderr
console = false
# Write rotated log files under ~/.config/bsm-engine/logs
file = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
