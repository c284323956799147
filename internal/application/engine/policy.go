package engine

import (
	"context"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// Policy decides which orders to place after the sweep and take-profit steps.
type Policy interface {
	Name() string
	Quote(ctx context.Context, e *Engine)
}

// LayeredPolicy quotes around an inventory-skewed reservation price, takes
// directional positions when the book is far from fair and hits both sides of
// a wide book that straddles fair.
type LayeredPolicy struct{}

func (LayeredPolicy) Name() string { return "layered" }

func (p LayeredPolicy) Quote(ctx context.Context, e *Engine) {
	p.marketMake(ctx, e)
	p.directional(ctx, e)
	p.spreadCapture(ctx, e)
}

// marketMake keeps one resting quote per side at reservation ± half spread.
func (LayeredPolicy) marketMake(ctx context.Context, e *Engine) {
	s := e.settings
	reservation := e.fair.Fair() - s.InventorySkew*e.ledger.Position()
	for _, side := range []domain.Side{domain.Buy, domain.Sell} {
		if e.ledger.HasLayer(side, domain.LayerQuote) {
			continue
		}
		e.placeSmartOrder(ctx, side, reservation, s.HalfSpread, s.QuoteEdge, kindResting, domain.LayerQuote)
	}
}

func (LayeredPolicy) directional(ctx context.Context, e *Engine) {
	s := e.settings
	fair := e.fair.Fair()

	if e.book.HasLiquidity(domain.Sell) {
		if edge := fair - e.book.BestAsk(); edge > s.MinEdge {
			directionalOrder(ctx, e, domain.Buy, edge)
		}
	}
	if e.book.HasLiquidity(domain.Buy) {
		if edge := e.book.BestBid() - fair; edge > s.MinEdge {
			directionalOrder(ctx, e, domain.Sell, edge)
		}
	}
}

// directionalOrder goes to market above MaxEdge. Otherwise it sends a limit at
// fair minus the directional buffer, which rests if it is inside the book and
// is sent immediate-or-cancel if it would cross.
func directionalOrder(ctx context.Context, e *Engine, side domain.Side, edge float64) {
	s := e.settings
	fair := e.fair.Fair()
	if edge > s.MaxEdge {
		e.placeSmartOrder(ctx, side, fair, 0, edge, kindMarket, domain.LayerDirectional)
		return
	}
	if e.ledger.HasLayer(side, domain.LayerDirectional) {
		return
	}
	price := domain.ClampPrice(domain.RoundPrice(fair - side.Sign()*s.DirectionalBuffer))
	kind := kindResting
	if crosses(e, side, price) {
		kind = kindIOC
	}
	e.placeSmartOrder(ctx, side, fair, s.DirectionalBuffer, edge, kind, domain.LayerDirectional)
}

func crosses(e *Engine, side domain.Side, price float64) bool {
	if side == domain.Buy {
		return e.book.HasLiquidity(domain.Sell) && price >= e.book.BestAsk()
	}
	return e.book.HasLiquidity(domain.Buy) && price <= e.book.BestBid()
}

func (LayeredPolicy) spreadCapture(ctx context.Context, e *Engine) {
	s := e.settings
	if !e.book.HasLiquidity(domain.Buy) || !e.book.HasLiquidity(domain.Sell) {
		return
	}
	bid, ask, fair := e.book.BestBid(), e.book.BestAsk(), e.fair.Fair()
	if e.book.Spread() <= s.SpreadCaptureThreshold || fair <= bid || fair >= ask {
		return
	}
	if e.hasInflight(domain.LayerCapture) {
		return
	}
	e.placeSmartOrder(ctx, domain.Buy, fair, s.CaptureBuffer, ask-fair, kindMarket, domain.LayerCapture)
	e.placeSmartOrder(ctx, domain.Sell, fair, s.CaptureBuffer, fair-bid, kindMarket, domain.LayerCapture)
}
