package main

import (
	"os"

	"github.com/fatih/color"

	"bsm-engine/internal/cli"
	"bsm-engine/internal/config"
	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/logging"
)

func main() {
	cfg, err := config.Load(cli.ConfigDirFromArgs(os.Args[1:]))
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(cli.LogConfigFor(cfg))
	if cfg.Created {
		logger.Info().Str("path", config.Path(cfg.Dir)).Msg("Created configuration template")
	}

	app := cli.NewApp(cfg, logger)
	err = cli.NewRootCmd(app).Execute()
	if cerr := app.Close(); cerr != nil {
		logger.Warn().Err(cerr).Msg("Failed to close session store")
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes bad input (2) from missing session state (3).
func exitCode(err error) int {
	switch {
	case apperrors.IsArgument(err):
		return 2
	case apperrors.IsState(err):
		return 3
	default:
		return 1
	}
}
