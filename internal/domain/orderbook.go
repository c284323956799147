package domain

import (
	"math"
	"sort"
)

// priceTolerance absorbs float round-trip noise on venue prices.
const priceTolerance = 1e-5

// Sentinels returned by BestBid/BestAsk when a side is empty. They keep
// downstream arithmetic defined; they are not tradable prices.
const (
	EmptyBidPrice = 0.0
	EmptyAskPrice = 100.0
)

// PriceLevel is one aggregated level of the book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// BookMirror is the local view of the contract's order book.
// Bids are kept in descending price order, asks ascending; one level per
// price, and a level with quantity <= 0 is never stored.
type BookMirror struct {
	bids []PriceLevel
	asks []PriceLevel
}

// NewBookMirror returns an empty book.
func NewBookMirror() *BookMirror {
	return &BookMirror{}
}

// ApplyDelta upserts the level at price, or removes it when quantity <= 0.
func (b *BookMirror) ApplyDelta(side Side, price, quantity float64) {
	levels := b.levels(side)
	i := findLevel(levels, price)

	switch {
	case quantity <= 0:
		if i >= 0 {
			levels = append(levels[:i], levels[i+1:]...)
		}
	case i >= 0:
		levels[i].Quantity = quantity
	default:
		at := insertIndex(levels, side, price)
		levels = append(levels, PriceLevel{})
		copy(levels[at+1:], levels[at:])
		levels[at] = PriceLevel{Price: price, Quantity: quantity}
	}

	b.setLevels(side, levels)
}

// ApplySnapshot replaces both sides. Input order is not trusted: levels are
// re-sorted, empty levels dropped and duplicate prices collapsed (last wins).
func (b *BookMirror) ApplySnapshot(bids, asks []PriceLevel) {
	b.bids = normalize(bids, Buy)
	b.asks = normalize(asks, Sell)
}

// Reset empties both sides.
func (b *BookMirror) Reset() {
	b.bids = nil
	b.asks = nil
}

// BestBid returns the top bid, or EmptyBidPrice when there are no bids.
func (b *BookMirror) BestBid() float64 {
	if len(b.bids) == 0 {
		return EmptyBidPrice
	}
	return b.bids[0].Price
}

// BestAsk returns the top ask, or EmptyAskPrice when there are no asks.
func (b *BookMirror) BestAsk() float64 {
	if len(b.asks) == 0 {
		return EmptyAskPrice
	}
	return b.asks[0].Price
}

// HasLiquidity reports whether the given side holds at least one level.
func (b *BookMirror) HasLiquidity(side Side) bool {
	return len(b.levels(side)) > 0
}

// Spread is BestAsk - BestBid using the sentinels for empty sides.
func (b *BookMirror) Spread() float64 {
	return b.BestAsk() - b.BestBid()
}

// Midpoint returns the mid price, or 0 when either side is empty.
func (b *BookMirror) Midpoint() float64 {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return 0
	}
	return (b.bids[0].Price + b.asks[0].Price) / 2
}

// Quantity returns the resting quantity at price on a side.
func (b *BookMirror) Quantity(side Side, price float64) (float64, bool) {
	levels := b.levels(side)
	if i := findLevel(levels, price); i >= 0 {
		return levels[i].Quantity, true
	}
	return 0, false
}

// Bids returns a copy of the bid levels, best first.
func (b *BookMirror) Bids() []PriceLevel {
	return append([]PriceLevel(nil), b.bids...)
}

// Asks returns a copy of the ask levels, best first.
func (b *BookMirror) Asks() []PriceLevel {
	return append([]PriceLevel(nil), b.asks...)
}

func (b *BookMirror) levels(side Side) []PriceLevel {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *BookMirror) setLevels(side Side, levels []PriceLevel) {
	if side == Buy {
		b.bids = levels
	} else {
		b.asks = levels
	}
}

// SamePrice compares two prices within the venue tolerance.
func SamePrice(a, b float64) bool {
	return math.Abs(a-b) < priceTolerance
}

func findLevel(levels []PriceLevel, price float64) int {
	for i, l := range levels {
		if SamePrice(l.Price, price) {
			return i
		}
	}
	return -1
}

// insertIndex is the position that keeps bids descending and asks ascending.
func insertIndex(levels []PriceLevel, side Side, price float64) int {
	if side == Buy {
		return sort.Search(len(levels), func(i int) bool { return levels[i].Price < price })
	}
	return sort.Search(len(levels), func(i int) bool { return levels[i].Price > price })
}

func normalize(in []PriceLevel, side Side) []PriceLevel {
	m := &BookMirror{}
	for _, l := range in {
		m.ApplyDelta(side, l.Price, l.Quantity)
	}
	return m.levels(side)
}
