package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/greeks"
	"bsm-engine/internal/logging"
	"bsm-engine/internal/models"
	"bsm-engine/internal/simulation"
	"bsm-engine/internal/store"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(store.NewMemoryStore(), WithSeeder(func() uint64 { return 42 }))
}

func seed(v uint64) *uint64 { return &v }

func TestPrice_ReferenceValuesAndBinding(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	call, put, err := e.Price(ctx, "s1", 100, 100, 1, 0.05, 0.20)
	require.NoError(t, err)
	assert.InDelta(t, 10.450583572185565, call, 1e-9)
	assert.InDelta(t, 5.573526022256971, put, 1e-9)

	snap, err := e.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ParameterSet{Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.20}, snap.Params)
	assert.Nil(t, snap.Path)
}

func TestPrice_InvalidInputsAreNotBound(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name                        string
		spot, strike, mat, r, sigma float64
	}{
		{"zero spot", 0, 100, 1, 0.05, 0.2},
		{"negative vol", 100, 100, 1, 0.05, -0.1},
		{"zero maturity", 100, 100, 0, 0.05, 0.2},
	} {
		_, _, err := e.Price(ctx, "bad", tc.spot, tc.strike, tc.mat, tc.r, tc.sigma)
		assert.True(t, apperrors.IsArgument(err), tc.name)
	}

	_, err := e.Snapshot(ctx, "bad")
	assert.True(t, apperrors.IsState(err))
}

func TestSimulate_ErrorOrdering(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.Simulate(ctx, "fresh", models.TimescaleDaily, -1, nil)
	assert.True(t, apperrors.IsArgument(err), "bad arguments win over missing state")

	_, err = e.Simulate(ctx, "fresh", models.TimescaleDaily, 10, nil)
	assert.True(t, apperrors.IsState(err))

	_, err = e.Hedge(ctx, "fresh", models.OptionTypeCall, 100)
	assert.True(t, apperrors.IsState(err))

	_, _, err = e.Price(ctx, "fresh", 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)

	_, err = e.Hedge(ctx, "fresh", models.OptionTypeCall, 100)
	assert.True(t, apperrors.IsState(err), "hedging needs a simulated path")

	_, err = e.Hedge(ctx, "fresh", models.OptionTypeCall, -1)
	assert.True(t, apperrors.IsArgument(err))
}

func TestSimulate_RecordsPathAndSeed(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.Price(ctx, "s", 49, 50, 20.0/52, 0.05, 0.2)
	require.NoError(t, err)

	path, err := e.Simulate(ctx, "s", models.TimescaleWeekly, 20, seed(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), path.Seed)

	p, _ := models.NewParameterSet(49, 50, 20.0/52, 0.05, 0.2)
	want, err := simulation.Simulate(p, models.TimescaleWeekly, 20, 7)
	require.NoError(t, err)
	assert.Equal(t, want, path)

	snap, err := e.Snapshot(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, snap.Path)
	assert.Equal(t, want.Spots, snap.Path.Spots)

	// Unseeded runs use the injected seeder and record it.
	drawn, err := e.Simulate(ctx, "s", models.TimescaleDaily, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), drawn.Seed)
}

func TestHedge_UsesSessionPath(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.Price(ctx, "h", 49, 50, 20.0/52, 0.05, 0.2)
	require.NoError(t, err)
	path, err := e.Simulate(ctx, "h", models.TimescaleWeekly, 20, seed(11))
	require.NoError(t, err)

	ledger, err := e.Hedge(ctx, "h", models.OptionTypeCall, 100000)
	require.NoError(t, err)

	p, _ := models.NewParameterSet(49, 50, 20.0/52, 0.05, 0.2)
	want, err := EvaluatePath(path, p, models.OptionTypeCall, 100000)
	require.NoError(t, err)
	assert.Equal(t, want.Rows, ledger.Rows)
	assert.True(t, want.TotalCost.Equal(ledger.TotalCost))
}

func TestBind_KeepsLastPath(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.Price(ctx, "k", 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)
	_, err = e.Simulate(ctx, "k", models.TimescaleDaily, 10, seed(1))
	require.NoError(t, err)

	_, _, err = e.Price(ctx, "k", 100, 110, 1, 0.05, 0.3)
	require.NoError(t, err)

	snap, err := e.Snapshot(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 110.0, snap.Params.Strike)
	require.NotNil(t, snap.Path)
	assert.Equal(t, 10, snap.Path.Steps())
}

func TestSessionsAreIsolated(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.Price(ctx, "a", 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)

	_, err = e.Simulate(ctx, "b", models.TimescaleDaily, 10, seed(1))
	assert.True(t, apperrors.IsState(err))

	sessions, err := e.Sessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "a", sessions[0].SessionID)

	require.NoError(t, e.Reset(ctx, "a"))
	_, err = e.Snapshot(ctx, "a")
	assert.True(t, apperrors.IsState(err))
}

func TestSessionGreeks(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SessionGreeks(ctx, "g", nil, 10, models.OptionTypeCall)
	assert.True(t, apperrors.IsState(err))

	_, _, err = e.Price(ctx, "g", 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)

	series, err := e.SessionGreeks(ctx, "g", nil, greeks.DefaultPoints, models.OptionTypePut)
	require.NoError(t, err)
	require.Len(t, series.Points, greeks.DefaultPoints)
	assert.InDelta(t, 0.6368306511756191-1, series.Points[0].Delta, 1e-12)

	direct, err := e.Greeks(100, 100, 1, 0.05, 0.2, []float64{0}, models.OptionTypePut)
	require.NoError(t, err)
	assert.Equal(t, series.Points[0], direct.Points[0])
}

func TestSimulateEnsemble(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.Price(ctx, "e", 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)

	paths, err := e.SimulateEnsemble(ctx, "e", models.TimescaleWeekly, 52, 8, seed(100))
	require.NoError(t, err)
	require.Len(t, paths, 8)
	assert.Equal(t, uint64(103), paths[3].Seed)

	_, err = e.SimulateEnsemble(ctx, "e", models.TimescaleWeekly, 52, 0, nil)
	assert.True(t, apperrors.IsArgument(err))

	// Ensembles are not recorded.
	snap, err := e.Snapshot(ctx, "e")
	require.NoError(t, err)
	assert.Nil(t, snap.Path)
}

func TestEngineLogsOperations(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := New(store.NewMemoryStore(), WithLogger(logger))
	ctx := context.Background()

	_, _, err := e.Price(ctx, "log", 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"event":"quote"`)
	assert.Contains(t, buf.String(), `"session":"log"`)
	assert.Contains(t, buf.String(), "Parameters bound")

	_, err = e.SessionGreeks(ctx, "log", nil, 3, models.OptionTypeCall)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Greeks computed")

	require.NoError(t, e.Reset(ctx, "log"))
	assert.Contains(t, buf.String(), "Session cleared")

	// A logger in the context takes precedence.
	var ctxBuf bytes.Buffer
	ctx = logging.WithLogger(ctx, zerolog.New(&ctxBuf))
	_, err = e.Simulate(ctx, "missing", models.TimescaleDaily, 3, nil)
	require.Error(t, err)
	assert.Contains(t, ctxBuf.String(), `"event":"failure"`)
}

func TestSimulate_ExtremeParameters(t *testing.T) {
	s, err := store.NewSQLiteStore(t.TempDir() + "/sessions.db")
	require.NoError(t, err)
	defer s.Close()
	e := New(s)
	ctx := context.Background()

	// Spots underflow to zero; the path is stored and can be hedged.
	_, _, err = e.Price(ctx, "low", 100, 100, 1, 0.05, 3)
	require.NoError(t, err)
	path, err := e.Simulate(ctx, "low", models.TimescaleYearly, 300, seed(7))
	require.NoError(t, err)
	assert.Equal(t, 0.0, path.Last())
	_, err = e.Hedge(ctx, "low", models.OptionTypeCall, 100)
	require.NoError(t, err)

	// Spots overflow; nothing is recorded.
	_, _, err = e.Price(ctx, "high", 100, 100, 1, 1, 0.1)
	require.NoError(t, err)
	_, err = e.Simulate(ctx, "high", models.TimescaleYearly, 800, seed(7))
	assert.True(t, apperrors.IsArgument(err))
	snap, err := e.Snapshot(ctx, "high")
	require.NoError(t, err)
	assert.Nil(t, snap.Path)
}
