package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bsm-engine/internal/store"
)

func addSessionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and clear stored sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the contract and path stored for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			snap, err := app.Engine.Snapshot(cmd.Context(), sessionOf(cmd))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(snap)
			}

			p := snap.Params
			lines := []string{
				fmt.Sprintf("Saved       %s", snap.SavedAt.Local().Format("2006-01-02 15:04:05")),
				fmt.Sprintf("Spot        %s", FormatPrice(p.Spot)),
				fmt.Sprintf("Strike      %s", FormatPrice(p.Strike)),
				fmt.Sprintf("Maturity    %s", FormatYears(p.Maturity)),
				fmt.Sprintf("Rate        %s", FormatPercent(p.RiskFreeRate)),
				fmt.Sprintf("Volatility  %s", FormatPercent(p.Volatility)),
			}
			if snap.Path != nil {
				lines = append(lines,
					fmt.Sprintf("Path        %d %s steps, seed %d", snap.Path.Steps(), snap.Path.Timescale.PeriodName(), snap.Path.Seed),
					fmt.Sprintf("Final spot  %s", FormatPrice(snap.Path.Last())),
				)
			} else {
				lines = append(lines, "Path        none")
			}
			output.Box("Session "+snap.SessionID, lines)
			return nil
		},
	})

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			sessions, err := app.Engine.Sessions(cmd.Context(), store.SessionFilter{Limit: limit})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(sessions)
			}
			if len(sessions) == 0 {
				output.Dim("No sessions stored")
				return nil
			}
			table := NewTable(output, "Session", "Saved", "Path Steps")
			for _, s := range sessions {
				steps := "-"
				if s.HasPath {
					steps = fmt.Sprintf("%d", s.Steps)
				}
				table.AddRow(TruncateString(s.SessionID, 32), s.SavedAt.Local().Format("2006-01-02 15:04:05"), steps)
			}
			table.Render()
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the contract and path stored for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			session := sessionOf(cmd)
			if err := app.Engine.Reset(cmd.Context(), session); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"reset": session})
			}
			output.Success("✓ Session %s cleared", session)
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}
