package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// fillPriceTolerance matches a fill to a resting order's price.
const fillPriceTolerance = 0.01

// Layer records which part of the quoting logic placed an order.
type Layer int

const (
	LayerQuote Layer = iota
	LayerDirectional
	LayerCapture
	LayerGrid
	LayerFlatten
)

func (l Layer) String() string {
	switch l {
	case LayerQuote:
		return "quote"
	case LayerDirectional:
		return "directional"
	case LayerCapture:
		return "capture"
	case LayerGrid:
		return "grid"
	case LayerFlatten:
		return "flatten"
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

// OpenOrder is one of the agent's resting orders.
type OpenOrder struct {
	ID        OrderID
	Side      Side
	Price     float64
	Quantity  float64 // as placed
	Remaining float64
	PlacedAt  float64 // game clock at placement
	Layer     Layer
}

// PositionState is the agent's inventory and cash as last reported.
type PositionState struct {
	Position         float64
	AvgEntry         float64 // 0 whenever Position == 0
	CapitalRemaining float64
	RealizedPnL      float64
}

// FillResult describes how a fill was reconciled.
type FillResult struct {
	OrderID        OrderID // zero when no resting order matched
	OrderClosed    bool
	PositionBefore float64
	PositionAfter  float64
	Realized       float64 // P&L realised by this fill
}

// Matched reports whether the fill was attributed to a resting order.
func (r FillResult) Matched() bool { return r.OrderID.Valid() }

// LedgerStats counts order lifecycle events since the last reset.
type LedgerStats struct {
	Placed    int
	Fills     int
	Unmatched int
	Swept     int
	Removed   int
	Volume    float64
}

// OrderLedger owns the agent's open orders and position. All mutation goes
// through its methods so position and average entry stay consistent.
type OrderLedger struct {
	initialCapital float64

	orders map[OrderID]*OpenOrder
	seq    []OrderID // placement order

	position decimal.Decimal
	avgEntry float64
	capital  float64
	realized float64
	stats    LedgerStats
}

// NewOrderLedger returns a flat ledger holding initialCapital.
func NewOrderLedger(initialCapital float64) *OrderLedger {
	l := &OrderLedger{initialCapital: initialCapital}
	l.Reset()
	return l
}

// Reset returns the ledger to the start-of-game state.
func (l *OrderLedger) Reset() {
	l.orders = make(map[OrderID]*OpenOrder)
	l.seq = nil
	l.position = decimal.Zero
	l.avgEntry = 0
	l.capital = l.initialCapital
	l.realized = 0
	l.stats = LedgerStats{}
}

// RecordPlacement tracks an order the venue accepted.
func (l *OrderLedger) RecordPlacement(id OrderID, side Side, price, quantity, placedAt float64, layer Layer) {
	if !id.Valid() {
		panic("ledger: RecordPlacement with empty order id")
	}
	if quantity <= 0 {
		panic(fmt.Sprintf("ledger: RecordPlacement with non-positive quantity %v", quantity))
	}
	if _, dup := l.orders[id]; dup {
		return
	}
	l.orders[id] = &OpenOrder{
		ID:        id,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		PlacedAt:  placedAt,
		Layer:     layer,
	}
	l.seq = append(l.seq, id)
	l.stats.Placed++
}

// RecordFill applies one of the agent's fills. The position always moves;
// the oldest resting order on the same side within a cent of price is
// decremented, and removed once nothing remains. A fill that matches no
// order (already swept or cancelled) only moves the position.
func (l *OrderLedger) RecordFill(side Side, price, quantity, capitalRemaining float64) FillResult {
	res, moved := l.applyFill(side, price, quantity, capitalRemaining)
	if !moved {
		return res
	}

	for _, id := range l.seq {
		o := l.orders[id]
		if o.Side != side || !SamePriceLevel(o.Price, price) {
			continue
		}
		rem := decimal.NewFromFloat(o.Remaining).Sub(decimal.NewFromFloat(quantity))
		o.Remaining, _ = rem.Float64()
		res.OrderID = id
		if !rem.IsPositive() {
			l.remove(id)
			res.OrderClosed = true
		}
		return res
	}
	l.stats.Unmatched++
	return res
}

// RecordDetachedFill applies a fill that belongs to an order already taken
// out of the ledger. Only the position moves.
func (l *OrderLedger) RecordDetachedFill(side Side, price, quantity, capitalRemaining float64) FillResult {
	res, moved := l.applyFill(side, price, quantity, capitalRemaining)
	if moved {
		l.stats.Unmatched++
	}
	return res
}

func (l *OrderLedger) applyFill(side Side, price, quantity, capitalRemaining float64) (FillResult, bool) {
	if quantity < 0 {
		panic(fmt.Sprintf("ledger: fill with negative quantity %v", quantity))
	}
	l.capital = capitalRemaining
	res := FillResult{PositionBefore: l.Position()}
	if quantity == 0 {
		res.PositionAfter = res.PositionBefore
		return res, false
	}
	res.Realized = l.applyPosition(side, price, quantity)
	res.PositionAfter = l.Position()
	l.stats.Fills++
	l.stats.Volume += quantity
	return res, true
}

// SamePriceLevel reports whether a fill at price belongs to an order resting
// at orderPrice.
func SamePriceLevel(orderPrice, price float64) bool {
	return math.Abs(orderPrice-price) < fillPriceTolerance
}

// applyPosition moves the signed position and maintains average entry and
// realised P&L. Returns the P&L realised by this fill.
func (l *OrderLedger) applyPosition(side Side, price, quantity float64) float64 {
	old := l.position
	delta := decimal.NewFromFloat(quantity)
	if side == Sell {
		delta = delta.Neg()
	}
	next := old.Add(delta)
	l.position = next

	oldAbs, _ := old.Abs().Float64()
	nextAbs, _ := next.Abs().Float64()

	switch {
	case old.IsZero():
		l.avgEntry = price
		return 0
	case old.Sign() == delta.Sign():
		l.avgEntry = (l.avgEntry*oldAbs + price*quantity) / nextAbs
		return 0
	}

	closed := min(quantity, oldAbs)
	realized := (price - l.avgEntry) * closed * float64(old.Sign())
	l.realized += realized
	switch {
	case next.IsZero():
		l.avgEntry = 0
	case next.Sign() != old.Sign():
		l.avgEntry = price
	}
	return realized
}

// SweepStale removes and returns every order older than ttl at clock now,
// oldest first.
// Ages are measured on the countdown game clock; a clock that jumped
// backwards (new period) ages orders the same way.
func (l *OrderLedger) SweepStale(now, ttl float64) []OpenOrder {
	var stale []OpenOrder
	for _, id := range l.seq {
		if o := l.orders[id]; math.Abs(o.PlacedAt-now) > ttl {
			stale = append(stale, *o)
		}
	}
	for _, o := range stale {
		l.remove(o.ID)
	}
	l.stats.Swept += len(stale)
	return stale
}

// Remove drops an order after a confirmed cancel. Unknown ids are ignored.
func (l *OrderLedger) Remove(id OrderID) bool {
	if _, ok := l.orders[id]; !ok {
		return false
	}
	l.remove(id)
	l.stats.Removed++
	return true
}

// CancelAll removes and returns every open order, oldest first.
func (l *OrderLedger) CancelAll() []OpenOrder {
	out := l.Orders()
	l.orders = make(map[OrderID]*OpenOrder)
	l.seq = nil
	l.stats.Removed += len(out)
	return out
}

func (l *OrderLedger) remove(id OrderID) {
	delete(l.orders, id)
	for i, s := range l.seq {
		if s == id {
			l.seq = append(l.seq[:i], l.seq[i+1:]...)
			return
		}
	}
}

// Order returns a copy of an open order.
func (l *OrderLedger) Order(id OrderID) (OpenOrder, bool) {
	o, ok := l.orders[id]
	if !ok {
		return OpenOrder{}, false
	}
	return *o, true
}

// Orders returns copies of all open orders, oldest first.
func (l *OrderLedger) Orders() []OpenOrder {
	out := make([]OpenOrder, 0, len(l.seq))
	for _, id := range l.seq {
		out = append(out, *l.orders[id])
	}
	return out
}

// CountSide is the number of open orders on a side.
func (l *OrderLedger) CountSide(side Side) int {
	n := 0
	for _, o := range l.orders {
		if o.Side == side {
			n++
		}
	}
	return n
}

// HasLayer reports whether an order placed by layer rests on side.
func (l *OrderLedger) HasLayer(side Side, layer Layer) bool {
	for _, o := range l.orders {
		if o.Side == side && o.Layer == layer {
			return true
		}
	}
	return false
}

// Len is the number of open orders.
func (l *OrderLedger) Len() int { return len(l.seq) }

// Position is the signed inventory in contracts.
func (l *OrderLedger) Position() float64 {
	f, _ := l.position.Float64()
	return f
}

// Flat reports whether the position is exactly zero.
func (l *OrderLedger) Flat() bool { return l.position.IsZero() }

// AvgEntry is the average entry price; 0 while flat.
func (l *OrderLedger) AvgEntry() float64 { return l.avgEntry }

// Capital is the venue-reported capital remaining.
func (l *OrderLedger) Capital() float64 { return l.capital }

// State snapshots position, entry, capital and realised P&L.
func (l *OrderLedger) State() PositionState {
	return PositionState{
		Position:         l.Position(),
		AvgEntry:         l.avgEntry,
		CapitalRemaining: l.capital,
		RealizedPnL:      l.realized,
	}
}

// Stats returns the lifecycle counters.
func (l *OrderLedger) Stats() LedgerStats { return l.stats }
