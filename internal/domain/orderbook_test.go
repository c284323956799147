package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBookMirror_EmptySentinels(t *testing.T) {
	b := NewBookMirror()
	assert.Equal(t, EmptyBidPrice, b.BestBid())
	assert.Equal(t, EmptyAskPrice, b.BestAsk())
	assert.False(t, b.HasLiquidity(Buy))
	assert.False(t, b.HasLiquidity(Sell))
	assert.Equal(t, 0.0, b.Midpoint())
}

func TestBookMirror_DeltaInsertKeepsOrder(t *testing.T) {
	b := NewBookMirror()
	b.ApplyDelta(Buy, 45, 10)
	b.ApplyDelta(Buy, 47, 5)
	b.ApplyDelta(Buy, 46, 1)
	b.ApplyDelta(Sell, 52, 3)
	b.ApplyDelta(Sell, 50, 2)
	b.ApplyDelta(Sell, 51, 7)

	assert.Equal(t, []PriceLevel{{47, 5}, {46, 1}, {45, 10}}, b.Bids())
	assert.Equal(t, []PriceLevel{{50, 2}, {51, 7}, {52, 3}}, b.Asks())
	assert.Equal(t, 47.0, b.BestBid())
	assert.Equal(t, 50.0, b.BestAsk())
	assert.InDelta(t, 3.0, b.Spread(), 1e-9)
	assert.InDelta(t, 48.5, b.Midpoint(), 1e-9)
}

func TestBookMirror_DeltaReplacesQuantity(t *testing.T) {
	b := NewBookMirror()
	b.ApplyDelta(Buy, 45, 10)
	b.ApplyDelta(Buy, 45.000001, 3) // venue round-trip noise

	require.Len(t, b.Bids(), 1)
	q, ok := b.Quantity(Buy, 45)
	require.True(t, ok)
	assert.Equal(t, 3.0, q)
}

func TestBookMirror_ZeroQuantityRemoves(t *testing.T) {
	b := NewBookMirror()
	b.ApplyDelta(Sell, 55, 4)
	b.ApplyDelta(Sell, 56, 4)

	b.ApplyDelta(Sell, 55, 0)
	assert.Equal(t, []PriceLevel{{56, 4}}, b.Asks())

	// absent price: no-op
	b.ApplyDelta(Sell, 70, 0)
	b.ApplyDelta(Sell, 71, -1)
	assert.Equal(t, []PriceLevel{{56, 4}}, b.Asks())
}

func TestBookMirror_SnapshotResorts(t *testing.T) {
	b := NewBookMirror()
	b.ApplyDelta(Buy, 10, 1)

	b.ApplySnapshot(
		[]PriceLevel{{40, 1}, {44, 2}, {42, 0}, {44, 5}},
		[]PriceLevel{{60, 1}, {58, 2}},
	)

	assert.Equal(t, []PriceLevel{{44, 5}, {40, 1}}, b.Bids())
	assert.Equal(t, []PriceLevel{{58, 2}, {60, 1}}, b.Asks())
}

func TestBookMirror_Reset(t *testing.T) {
	b := NewBookMirror()
	b.ApplyDelta(Buy, 10, 1)
	b.ApplyDelta(Sell, 11, 1)
	b.Reset()
	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())
}

func TestBookMirror_PropertyStrictOrdering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBookMirror()
		n := rapid.IntRange(1, 200).Draw(t, "n")
		for i := 0; i < n; i++ {
			side := Side(rapid.IntRange(0, 1).Draw(t, "side"))
			// cent grid so collisions are frequent
			price := float64(rapid.IntRange(1, 9999).Draw(t, "cents")) / 100
			qty := float64(rapid.IntRange(-3, 20).Draw(t, "qty"))
			b.ApplyDelta(side, price, qty)

			got, present := b.Quantity(side, price)
			if qty > 0 {
				if !present || got != qty {
					t.Fatalf("level %v on %v: want %v, got %v (present=%v)", price, side, qty, got, present)
				}
			} else if present {
				t.Fatalf("level %v on %v should be absent", price, side)
			}
		}

		bids := b.Bids()
		for i := 1; i < len(bids); i++ {
			if !(bids[i-1].Price > bids[i].Price) {
				t.Fatalf("bids not strictly descending: %v", bids)
			}
		}
		asks := b.Asks()
		for i := 1; i < len(asks); i++ {
			if !(asks[i-1].Price < asks[i].Price) {
				t.Fatalf("asks not strictly ascending: %v", asks)
			}
		}
		for _, l := range append(bids, asks...) {
			if l.Quantity <= 0 {
				t.Fatalf("stored non-positive level %v", l)
			}
		}
	})
}
