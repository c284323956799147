package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidOrder is returned for orders the paper venue refuses outright.
var ErrInvalidOrder = errors.New("invalid order")

type paperOrder struct {
	id        domain.OrderID
	side      domain.Side
	price     float64
	remaining float64
}

// Paper is a simulated exchange for one instrument. It mirrors the book from
// the same feed as the agent, fills marketable orders against the opposite
// side without consuming it, and fills resting orders when the book or a
// trade print crosses them. Fills queue until Drain.
type Paper struct {
	instrument domain.Instrument
	book       *domain.BookMirror
	orders     map[domain.OrderID]*paperOrder
	seq        []domain.OrderID
	capital    decimal.Decimal
	pending    []ports.Fill
}

var _ ports.Venue = (*Paper)(nil)

// NewPaper returns a venue holding initialCapital.
func NewPaper(instrument domain.Instrument, initialCapital float64) *Paper {
	return &Paper{
		instrument: instrument,
		book:       domain.NewBookMirror(),
		orders:     make(map[domain.OrderID]*paperOrder),
		capital:    decimal.NewFromFloat(initialCapital),
	}
}

// Reset drops all orders and queued fills and restores capital.
func (p *Paper) Reset(initialCapital float64) {
	p.book.Reset()
	p.orders = make(map[domain.OrderID]*paperOrder)
	p.seq = nil
	p.pending = nil
	p.capital = decimal.NewFromFloat(initialCapital)
}

// Capital is the simulated cash balance.
func (p *Paper) Capital() float64 { return p.capital.InexactFloat64() }

// OpenOrders is the number of resting orders.
func (p *Paper) OpenOrders() int { return len(p.seq) }

// ApplySnapshot replaces the book and fills whatever it crosses.
func (p *Paper) ApplySnapshot(instrument domain.Instrument, bids, asks []domain.PriceLevel) {
	if instrument != p.instrument {
		return
	}
	p.book.ApplySnapshot(bids, asks)
	p.matchResting()
}

// ApplyDelta updates one level and fills whatever it crosses.
func (p *Paper) ApplyDelta(instrument domain.Instrument, side domain.Side, price, quantity float64) {
	if instrument != p.instrument {
		return
	}
	p.book.ApplyDelta(side, price, quantity)
	p.matchResting()
}

// ApplyTrade fills resting orders the print traded through: a sell print at
// or below a resting bid, a buy print at or above a resting ask. The taker
// side is the print's side.
func (p *Paper) ApplyTrade(instrument domain.Instrument, side domain.Side, price, quantity float64) {
	if instrument != p.instrument {
		return
	}
	left := quantity
	for _, id := range p.ordersInSequence() {
		if left <= 0 {
			return
		}
		o := p.orders[id]
		if o.side != side.Opposite() {
			continue
		}
		through := (o.side == domain.Buy && price <= o.price) || (o.side == domain.Sell && price >= o.price)
		if !through {
			continue
		}
		qty := math.Min(o.remaining, left)
		left -= qty
		p.fillResting(o, qty)
	}
}

// Drain returns and clears the queued fills in execution order.
func (p *Paper) Drain() []ports.Fill {
	out := p.pending
	p.pending = nil
	return out
}

// PlaceMarketOrder fills against the opposite side, walking levels without
// consuming them. Whatever the book cannot absorb is dropped.
func (p *Paper) PlaceMarketOrder(_ context.Context, side domain.Side, instrument domain.Instrument, quantity float64) error {
	if instrument != p.instrument || quantity <= 0 {
		return fmt.Errorf("venue.PlaceMarketOrder: %w: %s qty %v", ErrInvalidOrder, instrument, quantity)
	}
	filled := p.take(side, quantity, math.Inf(int(side.Sign())))
	if filled < quantity {
		slog.Debug("paper: market order partially dropped", "side", side, "qty", quantity, "filled", filled)
	}
	return nil
}

// PlaceLimitOrder takes whatever liquidity the limit crosses and rests the
// remainder unless the order is IOC.
func (p *Paper) PlaceLimitOrder(_ context.Context, o ports.LimitOrder) (domain.OrderID, error) {
	if o.Instrument != p.instrument || o.Quantity <= 0 || o.Price <= 0 || o.Price >= domain.ContractNotional {
		return "", fmt.Errorf("venue.PlaceLimitOrder: %w: %s %s %v@%v", ErrInvalidOrder, o.Instrument, o.Side, o.Quantity, o.Price)
	}

	id := domain.OrderID(uuid.New().String())
	filled := p.take(o.Side, o.Quantity, o.Price)
	remaining := domain.RoundQty(o.Quantity - filled)
	if o.IOC || remaining <= 0 {
		return id, nil
	}

	p.orders[id] = &paperOrder{id: id, side: o.Side, price: o.Price, remaining: remaining}
	p.seq = append(p.seq, id)
	return id, nil
}

// CancelOrder removes a resting order. It returns false if the order already
// filled or never existed.
func (p *Paper) CancelOrder(_ context.Context, instrument domain.Instrument, id domain.OrderID) (bool, error) {
	if instrument != p.instrument {
		return false, nil
	}
	if _, ok := p.orders[id]; !ok {
		return false, nil
	}
	p.remove(id)
	return true, nil
}

// take executes up to quantity on side against the opposite levels priced no
// worse than limit, and returns the quantity filled.
func (p *Paper) take(side domain.Side, quantity, limit float64) float64 {
	levels := p.book.Asks()
	if side == domain.Sell {
		levels = p.book.Bids()
	}

	left := quantity
	for _, lvl := range levels {
		if left <= 0 {
			break
		}
		if (side == domain.Buy && lvl.Price > limit) || (side == domain.Sell && lvl.Price < limit) {
			break
		}
		qty := domain.RoundQty(math.Min(left, lvl.Quantity))
		if qty <= 0 {
			continue
		}
		left = domain.RoundQty(left - qty)
		p.record(side, lvl.Price, qty)
	}
	return domain.RoundQty(quantity - left)
}

// matchResting fills resting orders the book now crosses, at the order's
// own price.
func (p *Paper) matchResting() {
	for _, id := range p.ordersInSequence() {
		o := p.orders[id]
		switch {
		case o.side == domain.Buy && p.book.HasLiquidity(domain.Sell) && p.book.BestAsk() <= o.price:
			p.fillResting(o, o.remaining)
		case o.side == domain.Sell && p.book.HasLiquidity(domain.Buy) && p.book.BestBid() >= o.price:
			p.fillResting(o, o.remaining)
		}
	}
}

func (p *Paper) fillResting(o *paperOrder, qty float64) {
	p.record(o.side, o.price, qty)
	o.remaining = domain.RoundQty(o.remaining - qty)
	if o.remaining <= 0 {
		p.remove(o.id)
	}
}

func (p *Paper) record(side domain.Side, price, qty float64) {
	notional := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(qty))
	if side == domain.Buy {
		p.capital = p.capital.Sub(notional)
	} else {
		p.capital = p.capital.Add(notional)
	}
	p.pending = append(p.pending, ports.Fill{
		Instrument: p.instrument,
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Capital:    p.capital.InexactFloat64(),
	})
	slog.Debug("paper: fill", "side", side, "price", fmt.Sprintf("%.2f", price), "qty", qty)
}

func (p *Paper) ordersInSequence() []domain.OrderID {
	return append([]domain.OrderID(nil), p.seq...)
}

func (p *Paper) remove(id domain.OrderID) {
	delete(p.orders, id)
	for i, s := range p.seq {
		if s == id {
			p.seq = append(p.seq[:i], p.seq[i+1:]...)
			return
		}
	}
}
