package engine

import (
	"math"

	"github.com/alejandrodnm/courtside/internal/domain"
)

type skipReason int

const (
	skipReasonNone skipReason = iota
	skipReasonSize
	skipReasonNoLiquidity
	skipReasonCross
	skipReasonExposure
	skipReasonMaxOrders
	skipReasonVenue
)

func (r skipReason) String() string {
	switch r {
	case skipReasonNone:
		return ""
	case skipReasonSize:
		return "size"
	case skipReasonNoLiquidity:
		return "no_liquidity"
	case skipReasonCross:
		return "self_cross"
	case skipReasonExposure:
		return "exposure"
	case skipReasonMaxOrders:
		return "max_orders"
	case skipReasonVenue:
		return "venue_rejected"
	}
	return "unknown"
}

// orderKind says how an order interacts with the book.
type orderKind int

const (
	kindResting orderKind = iota // limit order that must not cross
	kindIOC                      // limit order allowed to take liquidity, never rests
	kindMarket
)

func (k orderKind) marketable() bool { return k != kindResting }

// ShouldPlaceOrder is the pre-trade risk gate. Resting orders must not cross
// the opposite best; marketable orders need something to trade against. Every
// order must keep worst-case exposure within the configured cap.
func (e *Engine) ShouldPlaceOrder(side domain.Side, price, quantity float64, marketable bool) bool {
	kind := kindResting
	if marketable {
		kind = kindMarket
	}
	return e.gateCheck(side, price, quantity, kind) == skipReasonNone
}

func (e *Engine) gateCheck(side domain.Side, price, quantity float64, kind orderKind) skipReason {
	if quantity <= 0 || math.IsNaN(quantity) {
		return skipReasonSize
	}
	if !e.book.HasLiquidity(side.Opposite()) {
		return skipReasonNoLiquidity
	}
	if !kind.marketable() {
		switch side {
		case domain.Buy:
			if price >= e.book.BestAsk() {
				return skipReasonCross
			}
		case domain.Sell:
			if price <= e.book.BestBid() {
				return skipReasonCross
			}
		}
	}
	if e.headroom(side)-quantity < -1e-9 {
		return skipReasonExposure
	}
	return skipReasonNone
}

// exposureIfFilled is the position that results if every resting and in-flight
// order on side fills.
func (e *Engine) exposureIfFilled(side domain.Side) float64 {
	pending := e.inflightQty(side)
	for _, o := range e.ledger.Orders() {
		if o.Side == side {
			pending += o.Remaining
		}
	}
	return e.ledger.Position() + side.Sign()*pending
}

// headroom is how many more contracts can be traded on side before the
// worst-case position hits the cap.
func (e *Engine) headroom(side domain.Side) float64 {
	limit := e.settings.MaxPosition()
	worst := e.exposureIfFilled(side)
	if side == domain.Buy {
		return limit - worst
	}
	return limit + worst
}

// CalculateOrderQuantity sizes an order by edge, capital and headroom, floored
// at the minimum clip and rounded to one decimal.
func (e *Engine) CalculateOrderQuantity(side domain.Side, edge float64) float64 {
	s := e.settings
	bySignal := math.Abs(edge) / s.EdgeSizeDivisor
	byCapital := e.ledger.Capital() / domain.ContractNotional * s.CapitalFraction
	qty := min(bySignal, byCapital, e.headroom(side))
	qty = max(qty, s.MinClip)
	return domain.RoundQty(qty)
}
