// Package engine binds the pricing components to a session store.
//
// Every operation takes a session ID. Price and Bind record a ParameterSet,
// Simulate records the last path, and Hedge reads both back. Operations that
// need prior state fail with a StateError until it exists.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/greeks"
	"bsm-engine/internal/hedging"
	"bsm-engine/internal/logging"
	"bsm-engine/internal/models"
	"bsm-engine/internal/pricing"
	"bsm-engine/internal/simulation"
	"bsm-engine/internal/store"
)

// Engine is the entry point used by the CLI.
type Engine struct {
	store  store.SnapshotStore
	logger zerolog.Logger
	seeder func() uint64
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSeeder sets the source of seeds for unseeded simulations.
func WithSeeder(seeder func() uint64) Option {
	return func(e *Engine) { e.seeder = seeder }
}

// New creates an engine backed by s.
func New(s store.SnapshotStore, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		logger: zerolog.Nop(),
		seeder: func() uint64 { return uint64(time.Now().UnixNano()) },
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) log(ctx context.Context, session, operation string) zerolog.Logger {
	logger := e.logger
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		logger = l
	}
	return logging.WithOperation(logging.WithSession(logger, session), operation)
}

// Price validates the inputs, binds them to the session and returns the
// call and put prices.
func (e *Engine) Price(ctx context.Context, session string, spot, strike, maturity, r, vol float64) (call, put float64, err error) {
	p, err := models.NewParameterSet(spot, strike, maturity, r, vol)
	if err != nil {
		logging.LogFailure(e.log(ctx, session, "price"), "price", 0, err)
		return 0, 0, err
	}
	q, err := e.Quote(ctx, session, p)
	if err != nil {
		return 0, 0, err
	}
	return q.CallPrice, q.PutPrice, nil
}

// Quote prices p, binds it to the session and returns the full quote.
func (e *Engine) Quote(ctx context.Context, session string, p models.ParameterSet) (models.AnalyticQuote, error) {
	logger := e.log(ctx, session, "price")
	start := time.Now()

	q, err := pricing.Price(p)
	if err != nil {
		logging.LogFailure(logger, "price", time.Since(start), err)
		return models.AnalyticQuote{}, err
	}
	if err := e.Bind(ctx, session, p); err != nil {
		return models.AnalyticQuote{}, err
	}

	logging.LogQuote(logger, p.Spot, p.Strike, p.Maturity, q.CallPrice, q.PutPrice)
	return q, nil
}

// Bind records p as the session's ParameterSet. A previously simulated path
// is kept so the snapshot always holds the latest of each.
func (e *Engine) Bind(ctx context.Context, session string, p models.ParameterSet) error {
	if err := p.Validate(); err != nil {
		return err
	}

	snap, err := e.store.Load(ctx, session)
	if err != nil && !errors.Is(err, store.ErrNoSnapshot) {
		return err
	}
	snap.Params = p
	snap.SavedAt = e.now()

	logger := e.log(ctx, session, "bind")
	if err := e.store.Save(ctx, session, snap); err != nil {
		logging.LogFailure(logger, "bind", 0, err)
		return err
	}
	logger.Debug().Interface("params", p).Msg("Parameters bound")
	return nil
}

// Simulate generates a path from the session's ParameterSet and records it.
// A nil seed draws a fresh one, which is stored in the returned path.
func (e *Engine) Simulate(ctx context.Context, session string, ts models.Timescale, steps int, seed *uint64) (models.PricePath, error) {
	logger := e.log(ctx, session, "simulate")

	// Malformed arguments are reported before missing session state.
	if _, err := simulation.TimeGrid(ts, steps); err != nil {
		logging.LogFailure(logger, "simulate", 0, err)
		return models.PricePath{}, err
	}

	snap, err := e.loadParams(ctx, session, "simulate")
	if err != nil {
		logging.LogFailure(logger, "simulate", 0, err)
		return models.PricePath{}, err
	}

	s := e.seedOrDraw(seed)
	start := time.Now()
	path, err := simulation.Simulate(snap.Params, ts, steps, s)
	if err != nil {
		logging.LogFailure(logger, "simulate", time.Since(start), err)
		return models.PricePath{}, err
	}

	snap.Path = &path
	snap.SavedAt = e.now()
	if err := e.store.Save(ctx, session, snap); err != nil {
		logging.LogFailure(logger, "simulate", time.Since(start), err)
		return models.PricePath{}, err
	}

	logging.LogSimulation(logger, ts.String(), steps, s, path.Last())
	return path, nil
}

// SimulateEnsemble generates paths from the session's ParameterSet without
// recording them. Path i uses seed+i.
func (e *Engine) SimulateEnsemble(ctx context.Context, session string, ts models.Timescale, steps, paths int, seed *uint64) ([]models.PricePath, error) {
	logger := e.log(ctx, session, "ensemble")

	if _, err := simulation.TimeGrid(ts, steps); err != nil {
		return nil, err
	}
	if paths < 1 {
		return nil, apperrors.NewValidationError("paths", paths, "must be at least 1")
	}

	snap, err := e.loadParams(ctx, session, "simulate ensemble")
	if err != nil {
		logging.LogFailure(logger, "ensemble", 0, err)
		return nil, err
	}

	s := e.seedOrDraw(seed)
	out, err := simulation.SimulateEnsemble(snap.Params, ts, steps, paths, s)
	if err != nil {
		logging.LogFailure(logger, "ensemble", 0, err)
		return nil, err
	}
	logger.Info().Int("paths", paths).Int("steps", steps).Uint64("seed", s).Msg("Ensemble simulated")
	return out, nil
}

// Surface prices a spot x volatility grid around the given contract.
func (e *Engine) Surface(p models.ParameterSet, spots, vols []float64) (pricing.PriceSurface, error) {
	return pricing.Surface(p, spots, vols)
}

// Greeks computes the Greeks series for explicit inputs.
func (e *Engine) Greeks(spot, strike, maturity, r, vol float64, grid []float64, optType models.OptionType) (models.GreeksSeries, error) {
	p, err := models.NewParameterSet(spot, strike, maturity, r, vol)
	if err != nil {
		return models.GreeksSeries{}, err
	}
	return greeks.Compute(p, grid, optType)
}

// SessionGreeks computes the Greeks series for the session's ParameterSet.
// A nil grid is replaced by points elapsed times spanning zero to maturity.
func (e *Engine) SessionGreeks(ctx context.Context, session string, grid []float64, points int, optType models.OptionType) (models.GreeksSeries, error) {
	if err := optType.Validate(); err != nil {
		return models.GreeksSeries{}, err
	}
	snap, err := e.loadParams(ctx, session, "greeks")
	if err != nil {
		return models.GreeksSeries{}, err
	}
	if grid == nil {
		grid, err = greeks.DefaultGrid(snap.Params.Maturity, points)
		if err != nil {
			return models.GreeksSeries{}, err
		}
	}
	series, err := greeks.Compute(snap.Params, grid, optType)
	if err != nil {
		return models.GreeksSeries{}, err
	}
	logger := e.log(ctx, session, "greeks")
	logger.Debug().Int("points", len(grid)).Str("option_type", optType.String()).Msg("Greeks computed")
	return series, nil
}

// Hedge evaluates the hedge on the session's last path and ParameterSet.
func (e *Engine) Hedge(ctx context.Context, session string, optType models.OptionType, nShares int) (models.HedgingLedger, error) {
	logger := e.log(ctx, session, "hedge")

	if err := optType.Validate(); err != nil {
		return models.HedgingLedger{}, err
	}
	if nShares < 0 {
		return models.HedgingLedger{}, apperrors.NewValidationError("shares", nShares, "must not be negative")
	}

	snap, err := e.loadParams(ctx, session, "hedge")
	if err != nil {
		logging.LogFailure(logger, "hedge", 0, err)
		return models.HedgingLedger{}, err
	}
	if snap.Path == nil {
		err := apperrors.NewStateError("hedge", "no price path has been simulated for this session")
		logging.LogFailure(logger, "hedge", 0, err)
		return models.HedgingLedger{}, err
	}

	ledger, err := EvaluatePath(*snap.Path, snap.Params, optType, nShares)
	if err != nil {
		logging.LogFailure(logger, "hedge", 0, err)
		return models.HedgingLedger{}, err
	}

	logging.LogHedge(logger, optType.String(), nShares, ledger.TotalShares, ledger.TotalCost.StringFixed(2))
	return ledger, nil
}

// EvaluatePath evaluates a hedge on explicit inputs without touching any session.
func EvaluatePath(path models.PricePath, p models.ParameterSet, optType models.OptionType, nShares int) (models.HedgingLedger, error) {
	return hedging.Evaluate(path, p, optType, nShares)
}

// Snapshot returns the session's last saved snapshot.
func (e *Engine) Snapshot(ctx context.Context, session string) (models.Snapshot, error) {
	return e.store.Load(ctx, session)
}

// Sessions lists stored sessions, newest first.
func (e *Engine) Sessions(ctx context.Context, filter store.SessionFilter) ([]store.SessionSummary, error) {
	return e.store.List(ctx, filter)
}

// Reset forgets everything recorded for the session.
func (e *Engine) Reset(ctx context.Context, session string) error {
	if err := e.store.Delete(ctx, session); err != nil {
		return err
	}
	logger := e.log(ctx, session, "reset")
	logger.Info().Msg("Session cleared")
	return nil
}

func (e *Engine) loadParams(ctx context.Context, session, operation string) (models.Snapshot, error) {
	snap, err := e.store.Load(ctx, session)
	if errors.Is(err, store.ErrNoSnapshot) {
		return models.Snapshot{}, apperrors.NewStateError(operation, "no parameters have been bound for this session")
	}
	if err != nil {
		return models.Snapshot{}, err
	}
	if err := snap.Params.Validate(); err != nil {
		return models.Snapshot{}, apperrors.NewStateError(operation, "session holds no valid parameters")
	}
	return snap, nil
}

func (e *Engine) seedOrDraw(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	return e.seeder()
}
