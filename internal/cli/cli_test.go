package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsm-engine/internal/config"
	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
	"bsm-engine/internal/store"
)

func newTestApp(t *testing.T, driver string) (*App, *cobra.Command) {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Store.Driver = driver
	cfg.Store.Path = filepath.Join(cfg.Dir, "sessions.db")
	app := NewApp(cfg, zerolog.Nop())
	t.Cleanup(func() { app.Close() })
	return app, NewRootCmd(app)
}

func newTestRoot(t *testing.T) *cobra.Command {
	t.Helper()
	_, root := newTestApp(t, store.DriverMemory)
	return root
}

func run(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestPriceCommand_JSON(t *testing.T) {
	root := newTestRoot(t)
	out, err := run(t, root, "price", "--spot", "100", "--strike", "100", "--maturity", "1", "--rate", "0.05", "--vol-pct", "20", "--json")
	require.NoError(t, err)

	var res priceResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, DefaultSession, res.Session)
	assert.InDelta(t, 0.2, res.Params.Volatility, 1e-15)
	assert.InDelta(t, 10.450583572185565, res.Quote.CallPrice, 1e-9)
	assert.InDelta(t, 5.573526022256971, res.Quote.PutPrice, 1e-9)
	assert.InDelta(t, 0.35, res.Quote.D1, 1e-12)
}

func TestPriceCommand_Text(t *testing.T) {
	root := newTestRoot(t)
	out, err := run(t, root, "price")
	require.NoError(t, err)
	assert.Contains(t, out, "10.45")
	assert.Contains(t, out, "5.5735")
}

func TestPriceCommand_RejectsBadInput(t *testing.T) {
	root := newTestRoot(t)
	_, err := run(t, root, "price", "--spot", "0")
	require.Error(t, err)
	assert.True(t, apperrors.IsArgument(err))
}

func TestHedgeWorkflow(t *testing.T) {
	root := newTestRoot(t)
	csvPath := filepath.Join(t.TempDir(), "ledger.csv")

	_, err := run(t, root, "hedge", "--session", "wf")
	assert.True(t, apperrors.IsState(err), "hedge before price")

	_, err = run(t, root, "price", "--session", "wf", "--spot", "49", "--strike", "50", "--maturity", "0.3846", "--vol", "0.2")
	require.NoError(t, err)

	_, err = run(t, root, "hedge", "--session", "wf")
	assert.True(t, apperrors.IsState(err), "hedge before simulate")

	out, err := run(t, root, "simulate", "--session", "wf", "--timescale", "weekly", "--steps", "20", "--seed", "2024", "--json")
	require.NoError(t, err)
	var path models.PricePath
	require.NoError(t, json.Unmarshal([]byte(out), &path))
	assert.Equal(t, uint64(2024), path.Seed)
	assert.Equal(t, 20, path.Steps())
	assert.Equal(t, models.TimescaleWeekly, path.Timescale)

	out, err = run(t, root, "hedge", "--session", "wf", "--shares", "100000", "--csv", csvPath, "--json")
	require.NoError(t, err)
	var res hedgeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Ledger.Rows, 21)
	assert.Equal(t, 100000, res.Ledger.Shares)
	assert.Equal(t, 49.0, res.Params.Spot)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 22)
	assert.True(t, strings.HasPrefix(lines[0], "Period,"))
}

func TestSimulateCommand_Ensemble(t *testing.T) {
	root := newTestRoot(t)
	_, err := run(t, root, "price")
	require.NoError(t, err)

	out, err := run(t, root, "simulate", "--paths", "16", "--steps", "10", "--seed", "5", "--json")
	require.NoError(t, err)

	var summary EnsembleSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 16, summary.Paths)
	assert.Equal(t, 10, summary.Steps)
	assert.Equal(t, uint64(5), summary.Seed)
	assert.Len(t, summary.FinalSpot, 16)
	assert.LessOrEqual(t, summary.Min, summary.Mean)
	assert.GreaterOrEqual(t, summary.Max, summary.Mean)
}

func TestSurfaceCommand(t *testing.T) {
	root := newTestRoot(t)
	out, err := run(t, root, "surface", "--spot-min", "90", "--spot-max", "110", "--spot-steps", "3", "--vol-min", "0.1", "--vol-max", "0.3", "--vol-steps", "2", "--json")
	require.NoError(t, err)

	var surface struct {
		Spots []float64   `json:"spots"`
		Vols  []float64   `json:"vols"`
		Calls [][]float64 `json:"calls"`
		Puts  [][]float64 `json:"puts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &surface))
	assert.Equal(t, []float64{90, 100, 110}, surface.Spots)
	require.Len(t, surface.Calls, 2)
	require.Len(t, surface.Calls[0], 3)
	assert.Less(t, surface.Calls[0][0], surface.Calls[0][2], "calls rise with spot")
	assert.Less(t, surface.Puts[0][1], surface.Puts[1][1], "puts rise with volatility")
}

func TestGreeksCommand(t *testing.T) {
	root := newTestRoot(t)

	_, err := run(t, root, "greeks", "--session", "g")
	assert.True(t, apperrors.IsState(err), "session greeks need a bound contract")

	out, err := run(t, root, "greeks", "--session", "g", "--spot", "100", "--points", "5", "--type", "put")
	require.NoError(t, err)
	assert.Contains(t, out, "Put Greeks over time")
	assert.Contains(t, out, "Delta")

	csvPath := filepath.Join(t.TempDir(), "greeks.csv")
	_, err = run(t, root, "price", "--session", "g")
	require.NoError(t, err)
	_, err = run(t, root, "greeks", "--session", "g", "--csv", csvPath)
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Time,Remaining,Delta,Gamma,Theta,Vega,Rho"))
}

func TestSessionCommands(t *testing.T) {
	root := newTestRoot(t)

	_, err := run(t, root, "session", "show", "--session", "s")
	assert.True(t, apperrors.IsState(err))

	_, err = run(t, root, "price", "--session", "s")
	require.NoError(t, err)

	out, err := run(t, root, "session", "show", "--session", "s")
	require.NoError(t, err)
	assert.Contains(t, out, "Session s")
	assert.Contains(t, out, "Path        none")

	out, err = run(t, root, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "s")

	_, err = run(t, root, "session", "reset", "--session", "s")
	require.NoError(t, err)
	_, err = run(t, root, "session", "show", "--session", "s")
	assert.True(t, apperrors.IsState(err))
}

func TestCoreCommands(t *testing.T) {
	root := newTestRoot(t)

	out, err := run(t, root, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)

	out, err = run(t, root, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	out, err = run(t, root, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Contract Defaults")
}

func TestStoreLifecycle(t *testing.T) {
	app, root := newTestApp(t, store.DriverSQLite)

	_, err := run(t, root, "version")
	require.NoError(t, err)
	_, err = run(t, root, "config", "validate")
	require.NoError(t, err)
	assert.Nil(t, app.Store, "commands without sessions leave the store closed")

	_, err = run(t, root, "hedge")
	assert.True(t, apperrors.IsState(err))
	require.NotNil(t, app.Store, "a failing command still opened the store")
	_, ok := app.Store.(*store.SQLiteStore)
	assert.True(t, ok)

	require.NoError(t, app.Close())
	assert.Nil(t, app.Store)
	assert.Nil(t, app.Engine)
	require.NoError(t, app.Close())
}

func TestSessionsPersistAcrossApps(t *testing.T) {
	app, root := newTestApp(t, store.DriverSQLite)
	_, err := run(t, root, "price", "--session", "p", "--spot", "101")
	require.NoError(t, err)
	require.NoError(t, app.Close())

	reopened := NewApp(app.Config, zerolog.Nop())
	t.Cleanup(func() { reopened.Close() })
	out, err := run(t, NewRootCmd(reopened), "session", "show", "--session", "p", "--json")
	require.NoError(t, err)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 101.0, snap.Params.Spot)
}

func TestHedgeCommand_CSVToStdoutAndMaturityWarning(t *testing.T) {
	root := newTestRoot(t)
	_, err := run(t, root, "price", "--maturity", "0.5")
	require.NoError(t, err)
	_, err = run(t, root, "simulate", "--timescale", "weekly", "--steps", "52", "--seed", "3")
	require.NoError(t, err)

	out, err := run(t, root, "hedge")
	require.NoError(t, err)
	assert.Contains(t, out, "past maturity")

	out, err = run(t, root, "hedge", "--csv", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "Period,Time,StockPrice,Delta,SharesPurchased,Cost,CumulativeCost", lines[0])
	assert.Len(t, lines, 54)
}

func TestConfigDirFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"price", "--config", "/etc/bsm"}, "/etc/bsm"},
		{[]string{"--config=/tmp/x", "hedge"}, "/tmp/x"},
		{[]string{"price", "--", "--config", "/nope"}, ""},
		{[]string{"price", "--config"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfigDirFromArgs(tt.args), "%v", tt.args)
	}
}
