package cli

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bsm-engine/internal/config"
	"bsm-engine/internal/engine"
	"bsm-engine/internal/logging"
	"bsm-engine/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// DefaultSession is used when --session is not given.
const DefaultSession = "default"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.SnapshotStore
	Engine *engine.Engine
}

// NewApp creates the application. The session store is opened on first use.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger,
	}
}

// openStore opens the configured session store once, falling back to memory.
func (a *App) openStore() {
	if a.Store != nil {
		return
	}
	snapshots, err := store.Open(a.Config.Store.Driver, a.Config.Store.Path)
	if err != nil {
		a.Logger.Warn().Err(err).Str("driver", a.Config.Store.Driver).Msg("Failed to open session store, sessions will not persist")
		snapshots = store.NewMemoryStore()
	} else {
		a.Logger.Debug().Str("driver", a.Config.Store.Driver).Str("path", a.Config.Store.Path).Msg("Session store initialized")
	}
	a.Store = snapshots
	a.Engine = engine.New(a.Store, engine.WithLogger(a.Logger))
}

// Close releases the session store if it was opened.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	a.Engine = nil
	return err
}

// noStore marks commands that never touch sessions.
const noStore = "no-store"

func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[noStore]; ok {
			return false
		}
	}
	return true
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bsm",
		Short: "Black-Scholes-Merton option engine",
		Long: `bsm prices European options under Black-Scholes-Merton, simulates
geometric Brownian motion paths, computes Greeks over time and evaluates
the cost of discrete delta hedging against a simulated path.

A session remembers the last priced contract and the last simulated path:
run 'price', then 'simulate', then 'hedge' with the same --session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			if needsStore(cmd) {
				app.openStore()
			}
			cmd.SetContext(logging.WithLogger(contextOf(cmd), app.Logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/bsm-engine)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("session", DefaultSession, "session that stores the last contract and path")

	addCoreCommands(rootCmd, app)
	addPricingCommands(rootCmd, app)
	addSimulationCommands(rootCmd, app)
	addRiskCommands(rootCmd, app)
	addSessionCommands(rootCmd, app)

	return rootCmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func sessionOf(cmd *cobra.Command) string {
	session, _ := cmd.Flags().GetString("session")
	if session == "" {
		return DefaultSession
	}
	return session
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{noStore: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("bsm v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Configuration management",
		Long:        "View and validate application configuration.",
		Annotations: map[string]string{noStore: ""},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.Path(app.Config.Dir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	d := cfg.Defaults
	output.Bold("Contract Defaults")
	output.Printf("  Spot:            %s\n", FormatPrice(d.Spot))
	output.Printf("  Strike:          %s\n", FormatPrice(d.Strike))
	output.Printf("  Maturity:        %s\n", FormatYears(d.Maturity))
	output.Printf("  Risk-free Rate:  %s\n", FormatPercent(d.RiskFreeRate))
	output.Printf("  Volatility:      %s\n", FormatPercent(d.Volatility))
	output.Printf("  Option Type:     %s\n", d.OptionType)
	output.Println()

	output.Bold("Run Defaults")
	output.Printf("  Timescale:       %s\n", d.Timescale)
	output.Printf("  Steps:           %d\n", d.Steps)
	output.Printf("  Shares:          %d\n", d.Shares)
	output.Printf("  Greeks Points:   %d\n", d.GreeksPoints)
	output.Println()

	output.Bold("Store")
	output.Printf("  Driver:          %s\n", cfg.Store.Driver)
	output.Printf("  Path:            %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  Console:         %v\n", cfg.Log.Console)
	output.Printf("  File:            %v\n", cfg.Log.File)
}

// LogConfigFor maps the [log] section onto the logger settings.
func LogConfigFor(cfg *config.Config) logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = cfg.Log.Level
	lc.Console = cfg.Log.Console
	lc.File = cfg.Log.File
	return lc
}

// ConfigDirFromArgs returns the value of --config in args, or "" when absent.
// The config must be loaded before the command tree is built.
func ConfigDirFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
