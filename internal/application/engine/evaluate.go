package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// EvaluateAndTrade runs one pass of the control loop: stale sweep, take-profit,
// then the quoting policy. It is called after every book update, fill and game
// event, and after clock ticks.
func (e *Engine) EvaluateAndTrade(ctx context.Context) {
	e.sweepStale(ctx)

	if !e.book.HasLiquidity(domain.Buy) && !e.book.HasLiquidity(domain.Sell) {
		return
	}

	e.takeProfit(ctx)
	e.policy.Quote(ctx, e)
}

func (e *Engine) sweepStale(ctx context.Context) {
	e.expireInflight()
	stale := e.ledger.SweepStale(e.now, e.settings.OrderLifetimeSec)
	for _, o := range stale {
		e.cancel(ctx, o, "stale")
	}
	if len(stale) > 0 {
		slog.Debug("engine: stale orders swept", "count", len(stale), "clock", e.now)
	}
}

// unrealizedPerContract is the mark-to-fair gain per contract held.
func (e *Engine) unrealizedPerContract() float64 {
	pos := e.ledger.Position()
	if pos == 0 {
		return 0
	}
	diff := e.fair.Fair() - e.ledger.AvgEntry()
	if pos < 0 {
		diff = -diff
	}
	return diff
}

// takeProfit flattens the whole position with a market order once the
// per-contract gain exceeds the threshold. While that order is in flight no
// second flatten is sent.
func (e *Engine) takeProfit(ctx context.Context) {
	pos := e.ledger.Position()
	if pos == 0 || e.hasInflight(domain.LayerFlatten) {
		return
	}
	gain := e.unrealizedPerContract()
	if gain <= e.settings.TakeProfitThreshold {
		return
	}

	side := domain.Sell
	if pos < 0 {
		side = domain.Buy
	}
	slog.Info("engine: take profit",
		"position", pos,
		"avgEntry", fmt.Sprintf("%.2f", e.ledger.AvgEntry()),
		"fair", fmt.Sprintf("%.2f", e.fair.Fair()),
		"gain", fmt.Sprintf("%.2f", gain),
	)
	if e.place(ctx, side, 0, domain.RoundQty(math.Abs(pos)), kindMarket, domain.LayerFlatten) {
		e.counters.takeProfits++
	}
}

// flatten sends a market order for the whole position unless one is already
// in flight.
func (e *Engine) flatten(ctx context.Context) {
	pos := e.ledger.Position()
	if pos == 0 || e.hasInflight(domain.LayerFlatten) {
		return
	}
	side := domain.Sell
	if pos < 0 {
		side = domain.Buy
	}
	e.place(ctx, side, 0, domain.RoundQty(math.Abs(pos)), kindMarket, domain.LayerFlatten)
}
