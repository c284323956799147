package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// Simulator is a venue that sees the same market data as the agent and
// queues the agent's fills for the runner to deliver.
type Simulator interface {
	ApplySnapshot(instrument domain.Instrument, bids, asks []domain.PriceLevel)
	ApplyDelta(instrument domain.Instrument, side domain.Side, price, quantity float64)
	ApplyTrade(instrument domain.Instrument, side domain.Side, price, quantity float64)
	Drain() []ports.Fill
	Reset(initialCapital float64)
}

// Observer receives fills and the agent's state after every record.
type Observer interface {
	ObserveFill(side domain.Side, quantity float64)
	ObserveState(clock, fair, position, capital float64, resting int)
}

// Stats counts what a run processed.
type Stats struct {
	Messages int
	Fills    int
	Games    int
	ByKind   map[ports.MessageKind]int
}

// Runner pumps records from an EventSource into the engine on the calling
// goroutine. With a Simulator, market data goes to the simulator first and
// the fills it produces are delivered once per record, after the engine's
// callback returns.
type Runner struct {
	source   ports.EventSource
	engine   *engine.Engine
	sim      Simulator
	observer Observer
	stats    Stats
}

// New returns a runner. sim and observer may be nil.
func New(source ports.EventSource, eng *engine.Engine, sim Simulator, observer Observer) *Runner {
	return &Runner{
		source:   source,
		engine:   eng,
		sim:      sim,
		observer: observer,
		stats:    Stats{ByKind: make(map[ports.MessageKind]int)},
	}
}

// Run processes records until the source is exhausted or ctx is cancelled.
// Both are a clean stop; any other source error is returned.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	slog.Info("runner: starting", "paper", r.sim != nil)
	r.engine.Start(ctx)

	for {
		msg, err := r.source.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			r.logDone("feed exhausted", start)
			return r.stats, nil
		case ctx.Err() != nil:
			r.logDone("stopped", start)
			return r.stats, nil
		default:
			return r.stats, fmt.Errorf("runner.Run: %w", err)
		}

		r.Dispatch(ctx, msg)
	}
}

// Dispatch hands one record to the simulator and the engine, then delivers
// whatever the simulator filled. Fills caused by the engine reacting to a
// fill wait for the next record.
func (r *Runner) Dispatch(ctx context.Context, msg ports.Message) {
	r.stats.Messages++
	r.stats.ByKind[msg.Kind]++

	switch msg.Kind {
	case ports.MsgBookSnapshot:
		if r.sim != nil {
			r.sim.ApplySnapshot(msg.Instrument, msg.Bids, msg.Asks)
		}
		r.engine.OnOrderbookSnapshot(ctx, msg.Instrument, msg.Bids, msg.Asks)

	case ports.MsgBookDelta:
		if r.sim != nil {
			r.sim.ApplyDelta(msg.Instrument, msg.Side, msg.Price, msg.Quantity)
		}
		r.engine.OnOrderbookUpdate(ctx, msg.Instrument, msg.Side, msg.Quantity, msg.Price)

	case ports.MsgTrade:
		if r.sim != nil {
			r.sim.ApplyTrade(msg.Instrument, msg.Side, msg.Price, msg.Quantity)
		}
		r.engine.OnTradeUpdate(ctx, msg.Instrument, msg.Side, msg.Quantity, msg.Price)

	case ports.MsgGameEvent:
		if msg.Event.Kind == domain.EventEndGame {
			r.deliverFills(ctx)
			r.engine.OnGameEvent(ctx, msg.Event)
			r.stats.Games++
			if r.sim != nil {
				r.sim.Reset(r.engine.Settings().InitialCapital)
			}
			r.observe()
			return
		}
		r.engine.OnGameEvent(ctx, msg.Event)

	case ports.MsgClock:
		r.engine.AdvanceClock(ctx, msg.Clock)

	case ports.MsgUnknown:
		slog.Debug("runner: ignoring record", "kind", msg.Kind)
	}

	r.deliverFills(ctx)
	r.observe()
}

func (r *Runner) deliverFills(ctx context.Context) {
	if r.sim == nil {
		return
	}
	for _, f := range r.sim.Drain() {
		r.stats.Fills++
		if r.observer != nil {
			r.observer.ObserveFill(f.Side, f.Quantity)
		}
		r.engine.OnAccountUpdate(ctx, f.Instrument, f.Side, f.Price, f.Quantity, f.Capital)
	}
}

func (r *Runner) observe() {
	if r.observer == nil {
		return
	}
	s := r.engine.Snapshot()
	r.observer.ObserveState(s.Clock, s.Fair, s.Position.Position, s.Position.CapitalRemaining, s.OpenOrders)
}

func (r *Runner) logDone(reason string, start time.Time) {
	slog.Info("runner: "+reason,
		"messages", r.stats.Messages,
		"fills", r.stats.Fills,
		"games", r.stats.Games,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
