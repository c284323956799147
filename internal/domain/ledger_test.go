package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLedger_FirstFillSetsEntry(t *testing.T) {
	for _, tc := range []struct {
		side Side
		want float64
	}{{Buy, 5}, {Sell, -5}} {
		l := NewOrderLedger(100_000)
		l.RecordFill(tc.side, 50, 5, 99_750)
		assert.Equal(t, tc.want, l.Position(), tc.side.String())
		assert.Equal(t, 50.0, l.AvgEntry(), tc.side.String())
		assert.Equal(t, 99_750.0, l.Capital())
	}
}

func TestLedger_SameDirectionBlends(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordFill(Buy, 40, 2, 0)
	l.RecordFill(Buy, 50, 3, 0)
	assert.Equal(t, 5.0, l.Position())
	assert.InDelta(t, (40*2+50*3)/5.0, l.AvgEntry(), 1e-9)

	s := NewOrderLedger(100_000)
	s.RecordFill(Sell, 60, 1, 0)
	s.RecordFill(Sell, 70, 1, 0)
	assert.Equal(t, -2.0, s.Position())
	assert.InDelta(t, 65.0, s.AvgEntry(), 1e-9)
}

func TestLedger_ReduceKeepsEntryAndRealises(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordFill(Buy, 40, 4, 0)
	res := l.RecordFill(Sell, 45, 1, 0)

	assert.Equal(t, 3.0, l.Position())
	assert.Equal(t, 40.0, l.AvgEntry())
	assert.InDelta(t, 5.0, res.Realized, 1e-9)
	assert.InDelta(t, 5.0, l.State().RealizedPnL, 1e-9)
}

func TestLedger_FlatResetsEntry(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordFill(Buy, 0.1, 0.1, 0)
	l.RecordFill(Buy, 0.2, 0.2, 0)
	l.RecordFill(Sell, 30, 0.3, 0)

	assert.True(t, l.Flat(), "0.1+0.2-0.3 must be exactly flat")
	assert.Equal(t, 0.0, l.Position())
	assert.Equal(t, 0.0, l.AvgEntry())
}

func TestLedger_CrossingThroughZero(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordFill(Buy, 40, 2, 0)
	res := l.RecordFill(Sell, 44, 5, 0)

	assert.Equal(t, -3.0, l.Position())
	assert.Equal(t, 44.0, l.AvgEntry())
	assert.InDelta(t, 8.0, res.Realized, 1e-9)
}

func TestLedger_FillDecrementsOldestMatch(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordPlacement("a", Buy, 45, 3, 2880, LayerQuote)
	l.RecordPlacement("b", Buy, 45.004, 3, 2879, LayerDirectional)
	l.RecordPlacement("c", Sell, 45, 3, 2879, LayerQuote)

	res := l.RecordFill(Buy, 45, 1, 0)
	assert.Equal(t, OrderID("a"), res.OrderID)
	assert.False(t, res.OrderClosed)
	o, ok := l.Order("a")
	require.True(t, ok)
	assert.InDelta(t, 2.0, o.Remaining, 1e-12)

	res = l.RecordFill(Buy, 45, 2, 0)
	assert.True(t, res.OrderClosed)
	_, ok = l.Order("a")
	assert.False(t, ok)

	res = l.RecordFill(Buy, 45, 3, 0)
	assert.Equal(t, OrderID("b"), res.OrderID)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 6.0, l.Position())
}

func TestLedger_FillForRemovedOrderIsBenign(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordPlacement("a", Sell, 55, 2, 2880, LayerQuote)
	stale := l.SweepStale(2870, 5)
	require.Len(t, stale, 1)
	require.Equal(t, OrderID("a"), stale[0].ID)

	res := l.RecordFill(Sell, 55, 2, 100_110)
	assert.False(t, res.Matched())
	assert.Equal(t, -2.0, l.Position())
	assert.Equal(t, 1, l.Stats().Unmatched)
	assert.False(t, l.Remove("a"))
}

func TestLedger_SweepStale(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordPlacement("old", Buy, 45, 1, 2880, LayerQuote)
	l.RecordPlacement("edge", Buy, 44, 1, 2875, LayerQuote)
	l.RecordPlacement("new", Sell, 60, 1, 2872, LayerQuote)

	stale := l.SweepStale(2870, 5)
	assert.Equal(t, []OrderID{"old"}, orderIDs(stale))
	assert.Equal(t, 45.0, stale[0].Price)
	assert.Equal(t, 2, l.Len())

	// clock reset for a new period ages everything
	stale = l.SweepStale(720, 5)
	assert.ElementsMatch(t, []OrderID{"edge", "new"}, orderIDs(stale))
	assert.Equal(t, 0, l.Len())
}

func orderIDs(orders []OpenOrder) []OrderID {
	ids := make([]OrderID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestLedger_DetachedFillSkipsRestingOrders(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordPlacement("a", Buy, 45, 2, 2880, LayerQuote)

	res := l.RecordDetachedFill(Buy, 45, 1, 99_955)
	assert.False(t, res.Matched())
	assert.Equal(t, 1.0, l.Position())
	assert.Equal(t, 45.0, l.AvgEntry())
	assert.Equal(t, 99_955.0, l.Capital())
	assert.Equal(t, 1, l.Stats().Unmatched)

	o, ok := l.Order("a")
	require.True(t, ok)
	assert.Equal(t, 2.0, o.Remaining, "resting order untouched")
}

func TestLedger_CountsAndLayers(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordPlacement("a", Buy, 45, 1, 0, LayerQuote)
	l.RecordPlacement("b", Buy, 44, 1, 0, LayerDirectional)
	l.RecordPlacement("c", Sell, 60, 1, 0, LayerCapture)

	assert.Equal(t, 2, l.CountSide(Buy))
	assert.Equal(t, 1, l.CountSide(Sell))
	assert.True(t, l.HasLayer(Buy, LayerQuote))
	assert.False(t, l.HasLayer(Sell, LayerQuote))

	removed := l.CancelAll()
	assert.Equal(t, []OrderID{"a", "b", "c"}, orderIDs(removed))
	assert.Equal(t, LayerDirectional, removed[1].Layer)
	assert.Equal(t, 0, l.Len())
}

func TestLedger_DuplicatePlacementIgnored(t *testing.T) {
	l := NewOrderLedger(100_000)
	l.RecordPlacement("a", Buy, 45, 1, 0, LayerQuote)
	l.RecordPlacement("a", Buy, 46, 9, 0, LayerQuote)
	o, _ := l.Order("a")
	assert.Equal(t, 45.0, o.Price)
	assert.Equal(t, 1, l.Stats().Placed)
}

func TestLedger_ProgrammingErrorsPanic(t *testing.T) {
	l := NewOrderLedger(100_000)
	assert.Panics(t, func() { l.RecordPlacement("", Buy, 45, 1, 0, LayerQuote) })
	assert.Panics(t, func() { l.RecordPlacement("x", Buy, 45, 0, 0, LayerQuote) })
	assert.Panics(t, func() { l.RecordFill(Buy, 45, -1, 0) })
}

func TestLedger_Reset(t *testing.T) {
	l := NewOrderLedger(1000)
	l.RecordPlacement("a", Buy, 45, 1, 0, LayerQuote)
	l.RecordFill(Buy, 45, 1, 955)
	l.Reset()

	assert.Equal(t, PositionState{CapitalRemaining: 1000}, l.State())
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, LedgerStats{}, l.Stats())
}

func TestLedger_PropertyWeightedAverage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := NewOrderLedger(100_000)
		side := Side(rapid.IntRange(0, 1).Draw(t, "side"))
		n := rapid.IntRange(1, 20).Draw(t, "n")

		var notional, qty float64
		for i := 0; i < n; i++ {
			p := float64(rapid.IntRange(1, 9999).Draw(t, "cents")) / 100
			q := float64(rapid.IntRange(1, 100).Draw(t, "tenths")) / 10
			l.RecordFill(side, p, q, 0)
			notional += p * q
			qty += q
		}

		if math.Abs(math.Abs(l.Position())-qty) > 1e-9 {
			t.Fatalf("position %v, want %v", l.Position(), qty)
		}
		if want := notional / qty; math.Abs(l.AvgEntry()-want) > 1e-6 {
			t.Fatalf("avg entry %v, want %v", l.AvgEntry(), want)
		}

		// unwind completely: entry must reset
		l.RecordFill(side.Opposite(), 50, math.Abs(l.Position()), 0)
		if !l.Flat() || l.AvgEntry() != 0 {
			t.Fatalf("not flat after unwind: pos=%v entry=%v", l.Position(), l.AvgEntry())
		}
	})
}
