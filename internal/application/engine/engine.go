package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/google/uuid"
)

// Config wires an Engine. Settings and Model are required; the rest is
// optional.
type Config struct {
	Instrument domain.Instrument
	Settings   domain.TradeSetting
	Model      domain.FairValueModel
	Policy     Policy
	Journal    ports.Journal
	Reporter   ports.Reporter
}

// Engine is the quoting agent for one contract. It is driven by callbacks
// from a single goroutine; every callback runs to completion and there is
// no internal locking.
type Engine struct {
	instrument domain.Instrument
	settings   domain.TradeSetting
	policy     Policy
	venue      ports.Venue
	journal    ports.Journal
	reporter   ports.Reporter

	book   *domain.BookMirror
	game   domain.GameState
	fair   *domain.Estimator
	ledger *domain.OrderLedger

	now       float64 // game clock of the last event
	sessionID string
	inflight  []inflightOrder
	lastTrade float64
	counters  counters
}

type counters struct {
	rejected    int
	cancelled   int
	market      int
	takeProfits int
}

// New validates cfg and returns an engine in the start-of-game state.
func New(cfg Config, venue ports.Venue) (*Engine, error) {
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}
	if venue == nil {
		return nil, fmt.Errorf("engine.New: venue is required")
	}
	if cfg.Model == nil {
		cfg.Model = domain.NewScoreDiffModel()
	}
	if cfg.Policy == nil {
		cfg.Policy = LayeredPolicy{}
	}
	if cfg.Instrument == "" {
		cfg.Instrument = domain.TeamA
	}
	if cfg.Journal == nil {
		cfg.Journal = nopJournal{}
	}

	e := &Engine{
		instrument: cfg.Instrument,
		settings:   cfg.Settings,
		policy:     cfg.Policy,
		venue:      venue,
		journal:    cfg.Journal,
		reporter:   cfg.Reporter,
		book:       domain.NewBookMirror(),
		fair:       domain.NewEstimator(cfg.Model),
		ledger:     domain.NewOrderLedger(cfg.Settings.InitialCapital),
	}
	e.reset()
	return e, nil
}

// reset returns every piece of state to the start of a game.
func (e *Engine) reset() {
	e.book.Reset()
	e.game = domain.NewGameState()
	e.fair.Reset()
	e.ledger.Reset()
	e.now = e.game.TimeRemaining
	e.inflight = nil
	e.lastTrade = 0
	e.counters = counters{}
	e.sessionID = uuid.New().String()
	if r, ok := e.policy.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// Start opens the journal session for the current game.
func (e *Engine) Start(ctx context.Context) {
	if err := e.journal.StartSession(ctx, e.sessionID, time.Now().UTC()); err != nil {
		slog.Warn("engine: journal start failed", "session", e.sessionID, "err", err)
	}
	slog.Info("engine: session started",
		"session", e.sessionID,
		"instrument", e.instrument,
		"policy", e.policy.Name(),
		"model", e.fair.Model().Name(),
	)
}

func (e *Engine) accepts(instrument domain.Instrument) bool {
	if instrument != e.instrument {
		slog.Debug("engine: ignoring foreign instrument", "instrument", instrument)
		return false
	}
	return true
}

// OnOrderbookUpdate applies a book delta; quantity 0 removes the level.
func (e *Engine) OnOrderbookUpdate(ctx context.Context, instrument domain.Instrument, side domain.Side, quantity, price float64) {
	if !e.accepts(instrument) {
		return
	}
	e.book.ApplyDelta(side, price, quantity)
	e.EvaluateAndTrade(ctx)
}

// OnOrderbookSnapshot replaces the whole book.
func (e *Engine) OnOrderbookSnapshot(ctx context.Context, instrument domain.Instrument, bids, asks []domain.PriceLevel) {
	if !e.accepts(instrument) {
		return
	}
	e.book.ApplySnapshot(bids, asks)
	e.EvaluateAndTrade(ctx)
}

// OnTradeUpdate receives a print from the market, not necessarily ours.
func (e *Engine) OnTradeUpdate(ctx context.Context, instrument domain.Instrument, side domain.Side, quantity, price float64) {
	if !e.accepts(instrument) {
		return
	}
	e.lastTrade = price
	slog.Debug("engine: market trade", "side", side, "qty", quantity, "price", fmt.Sprintf("%.2f", price))
	e.EvaluateAndTrade(ctx)
}

// OnAccountUpdate reconciles one of the agent's own fills.
func (e *Engine) OnAccountUpdate(ctx context.Context, instrument domain.Instrument, side domain.Side, price, quantity, capitalRemaining float64) {
	if !e.accepts(instrument) {
		return
	}
	var res domain.FillResult
	if e.consumeUnconfirmed(side, price, quantity) {
		res = e.ledger.RecordDetachedFill(side, price, quantity, capitalRemaining)
	} else {
		res = e.ledger.RecordFill(side, price, quantity, capitalRemaining)
		if !res.Matched() {
			e.consumeInflight(side, quantity)
		}
	}
	if e.ledger.Flat() || (res.PositionBefore > 0) != (res.PositionAfter > 0) {
		e.clearInflight(domain.LayerFlatten)
	}

	slog.Info("engine: fill",
		"side", side,
		"qty", quantity,
		"price", fmt.Sprintf("%.2f", price),
		"order", res.OrderID,
		"matched", res.Matched(),
		"position", res.PositionAfter,
		"avgEntry", fmt.Sprintf("%.2f", e.ledger.AvgEntry()),
		"capital", fmt.Sprintf("%.2f", capitalRemaining),
	)
	e.recordFill(ctx, side, price, quantity, res)
	e.EvaluateAndTrade(ctx)
}

// OnGameEvent folds a play-by-play event into the game state, refreshes fair
// value and re-evaluates. END_GAME cancels resting orders, reports the game
// and resets the agent.
func (e *Engine) OnGameEvent(ctx context.Context, ev domain.GameEvent) {
	e.game.Apply(ev)
	e.now = e.game.TimeRemaining
	prob := e.fair.Update(e.game)

	slog.Debug("engine: game event",
		"kind", ev.Kind,
		"team", ev.Team,
		"score", fmt.Sprintf("%d-%d", e.game.HomeScore, e.game.AwayScore),
		"clock", e.now,
		"possession", e.game.Possession,
		"prob", fmt.Sprintf("%.4f", prob),
	)

	switch ev.Kind {
	case domain.EventEndGame:
		e.endGame(ctx)
		return
	default:
		e.EvaluateAndTrade(ctx)
	}
}

// AdvanceClock moves the game clock without a play-by-play event, so resting
// orders keep ageing between plays.
func (e *Engine) AdvanceClock(ctx context.Context, timeSeconds float64) {
	e.game.Tick(timeSeconds)
	e.now = e.game.TimeRemaining
	e.fair.Update(e.game)
	e.EvaluateAndTrade(ctx)
}

func (e *Engine) endGame(ctx context.Context) {
	for _, o := range e.ledger.CancelAll() {
		e.cancel(ctx, o, "end_game")
	}

	summary := e.summary()
	if err := e.journal.SaveGameSummary(ctx, summary); err != nil {
		slog.Warn("engine: journal summary failed", "session", e.sessionID, "err", err)
	}
	if e.reporter != nil {
		e.reporter.PrintGameSummary(summary)
	}
	slog.Info("engine: game over, resetting",
		"session", e.sessionID,
		"score", fmt.Sprintf("%d-%d", e.game.HomeScore, e.game.AwayScore),
		"position", summary.Position,
		"capital", fmt.Sprintf("%.2f", summary.CapitalRemaining),
		"realized", fmt.Sprintf("%.2f", summary.RealizedPnL),
	)

	e.reset()
	e.Start(ctx)
}

func (e *Engine) summary() ports.GameSummary {
	st := e.ledger.State()
	ls := e.ledger.Stats()
	return ports.GameSummary{
		SessionID:        e.sessionID,
		Policy:           e.policy.Name(),
		Model:            e.fair.Model().Name(),
		HomeScore:        e.game.HomeScore,
		AwayScore:        e.game.AwayScore,
		FinalFair:        e.fair.Fair(),
		Position:         st.Position,
		AvgEntry:         st.AvgEntry,
		CapitalRemaining: st.CapitalRemaining,
		RealizedPnL:      st.RealizedPnL,
		OrdersPlaced:     ls.Placed,
		OrdersRejected:   e.counters.rejected,
		OrdersCancelled:  e.counters.cancelled,
		MarketOrders:     e.counters.market,
		Fills:            ls.Fills,
		UnmatchedFills:   ls.Unmatched,
		Volume:           ls.Volume,
		TakeProfits:      e.counters.takeProfits,
		EndedAt:          time.Now().UTC(),
	}
}

// Snapshot is a read-only view of the agent used for reporting and metrics.
type Snapshot struct {
	SessionID  string
	Clock      float64
	Fair       float64
	BestBid    float64
	BestAsk    float64
	HasBids    bool
	HasAsks    bool
	Position   domain.PositionState
	OpenOrders int
	Inflight   float64
	LastTrade  float64
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		SessionID:  e.sessionID,
		Clock:      e.now,
		Fair:       e.fair.Fair(),
		BestBid:    e.book.BestBid(),
		BestAsk:    e.book.BestAsk(),
		HasBids:    e.book.HasLiquidity(domain.Buy),
		HasAsks:    e.book.HasLiquidity(domain.Sell),
		Position:   e.ledger.State(),
		OpenOrders: e.ledger.Len(),
		Inflight:   e.inflightQty(domain.Buy) + e.inflightQty(domain.Sell),
		LastTrade:  e.lastTrade,
	}
}

// OpenOrders returns the resting orders, oldest first.
func (e *Engine) OpenOrders() []domain.OpenOrder { return e.ledger.Orders() }

// Game returns the current game state.
func (e *Engine) Game() domain.GameState { return e.game }

// Settings returns the engine's configuration.
func (e *Engine) Settings() domain.TradeSetting { return e.settings }
