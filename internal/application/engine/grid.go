package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// GridPolicy rebuilds a symmetric ladder of limit orders around fair on every
// re-quote, stops bidding while the away team is running away with the game
// and flattens inside the last minutes of regulation.
type GridPolicy struct {
	Levels           int
	Interval         float64
	CapitalFraction  float64 // notional per level as a fraction of capital
	FlattenWindowSec float64
	RequoteMidMove   float64
	// AwayLeadByQuarter is the away lead that counts as dominating in Q1..Q4.
	AwayLeadByQuarter [4]int
	AwayRunPoints     int

	lastMid  float64
	lastFair float64
	quoted   bool
}

// NewGridPolicy returns a three-level grid three points apart.
func NewGridPolicy() *GridPolicy {
	return &GridPolicy{
		Levels:            3,
		Interval:          3,
		CapitalFraction:   0.005,
		FlattenWindowSec:  300,
		RequoteMidMove:    1,
		AwayLeadByQuarter: [4]int{10, 15, 12, 8},
		AwayRunPoints:     10,
	}
}

func (g *GridPolicy) Name() string { return "grid" }

// Reset forgets the last quote so the next evaluation re-quotes.
func (g *GridPolicy) Reset() {
	g.lastMid, g.lastFair, g.quoted = 0, 0, false
}

func (g *GridPolicy) Quote(ctx context.Context, e *Engine) {
	if !e.book.HasLiquidity(domain.Buy) || !e.book.HasLiquidity(domain.Sell) {
		return
	}

	if clock := e.game.TimeRemaining; clock > 0 && clock <= g.FlattenWindowSec {
		e.cancelAll(ctx, "flatten_window")
		e.flatten(ctx)
		g.quoted = false
		return
	}

	mid, fair := e.book.Midpoint(), e.fair.Fair()
	if g.quoted && e.ledger.Len() > 0 && fair == g.lastFair && math.Abs(mid-g.lastMid) < g.RequoteMidMove {
		return
	}
	g.lastMid, g.lastFair, g.quoted = mid, fair, true

	e.cancelAll(ctx, "requote")

	qty := 1.0
	if fair > 0 {
		qty = max(1, domain.RoundQty(e.ledger.Capital()*g.CapitalFraction/fair))
	}
	bidding := !g.AwayDominating(e.game)
	if !bidding {
		slog.Debug("engine: away dominating, grid bids withheld",
			"score", fmt.Sprintf("%d-%d", e.game.HomeScore, e.game.AwayScore),
			"run", e.game.Momentum.Points,
		)
	}

	for i := 1; i <= g.Levels; i++ {
		step := float64(i) * g.Interval
		if bidding && !e.sideFull(ctx, domain.Buy, kindResting, domain.LayerGrid) {
			price := domain.ClampPrice(domain.RoundPrice(fair - step))
			e.place(ctx, domain.Buy, price, qty, kindResting, domain.LayerGrid)
		}
		if !e.sideFull(ctx, domain.Sell, kindResting, domain.LayerGrid) {
			price := domain.ClampPrice(domain.RoundPrice(fair + step))
			e.place(ctx, domain.Sell, price, qty, kindResting, domain.LayerGrid)
		}
	}
}

// AwayDominating reports whether the away team leads by at least the
// quarter's threshold, or leads while on a long enough scoring run.
func (g *GridPolicy) AwayDominating(s domain.GameState) bool {
	lead := s.AwayScore - s.HomeScore
	if lead <= 0 || s.MaxTime <= 0 {
		return false
	}
	quarter := s.MaxTime / 4
	var threshold int
	switch {
	case s.TimeRemaining > 3*quarter:
		threshold = g.AwayLeadByQuarter[0]
	case s.TimeRemaining > 2*quarter:
		threshold = g.AwayLeadByQuarter[1]
	case s.TimeRemaining > quarter:
		threshold = g.AwayLeadByQuarter[2]
	default:
		threshold = g.AwayLeadByQuarter[3]
	}
	if lead >= threshold {
		return true
	}
	return s.Momentum.Team == domain.Away && s.Momentum.Points >= g.AwayRunPoints
}
