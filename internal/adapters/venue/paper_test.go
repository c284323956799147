package venue_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/courtside/internal/adapters/venue"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaper(t *testing.T) *venue.Paper {
	t.Helper()
	p := venue.NewPaper(domain.TeamA, 1_000)
	p.ApplySnapshot(domain.TeamA,
		[]domain.PriceLevel{{Price: 45, Quantity: 3}, {Price: 44, Quantity: 10}},
		[]domain.PriceLevel{{Price: 55, Quantity: 2}, {Price: 56, Quantity: 5}},
	)
	return p
}

func TestPaper_MarketOrderWalksBook(t *testing.T) {
	p := newPaper(t)
	require.NoError(t, p.PlaceMarketOrder(context.Background(), domain.Buy, domain.TeamA, 4))

	fills := p.Drain()
	require.Len(t, fills, 2)
	assert.Equal(t, ports.Fill{Instrument: domain.TeamA, Side: domain.Buy, Price: 55, Quantity: 2, Capital: 890}, fills[0])
	assert.Equal(t, ports.Fill{Instrument: domain.TeamA, Side: domain.Buy, Price: 56, Quantity: 2, Capital: 778}, fills[1])
	assert.Equal(t, 778.0, p.Capital())
	assert.Empty(t, p.Drain(), "drain clears the queue")
}

func TestPaper_MarketOrderNoLiquidity(t *testing.T) {
	p := venue.NewPaper(domain.TeamA, 1_000)
	require.NoError(t, p.PlaceMarketOrder(context.Background(), domain.Sell, domain.TeamA, 4))
	assert.Empty(t, p.Drain())
	assert.Equal(t, 1_000.0, p.Capital())
}

func TestPaper_RestingOrderFillsWhenBookCrosses(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t)

	id, err := p.PlaceLimitOrder(ctx, ports.LimitOrder{Side: domain.Buy, Instrument: domain.TeamA, Quantity: 3, Price: 50})
	require.NoError(t, err)
	require.True(t, id.Valid())
	assert.Empty(t, p.Drain())
	assert.Equal(t, 1, p.OpenOrders())

	p.ApplyDelta(domain.TeamA, domain.Sell, 50, 10)
	fills := p.Drain()
	require.Len(t, fills, 1)
	assert.Equal(t, 50.0, fills[0].Price)
	assert.Equal(t, 3.0, fills[0].Quantity)
	assert.Equal(t, 850.0, p.Capital())
	assert.Zero(t, p.OpenOrders())
}

func TestPaper_IOCNeverRests(t *testing.T) {
	p := newPaper(t)
	id, err := p.PlaceLimitOrder(context.Background(), ports.LimitOrder{
		Side: domain.Buy, Instrument: domain.TeamA, Quantity: 5, Price: 55.5, IOC: true,
	})
	require.NoError(t, err)
	assert.True(t, id.Valid())

	fills := p.Drain()
	require.Len(t, fills, 1)
	assert.Equal(t, 2.0, fills[0].Quantity, "only the 55 level is inside the limit")
	assert.Zero(t, p.OpenOrders())
}

func TestPaper_TradePrintFillsRestingOrder(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t)

	_, err := p.PlaceLimitOrder(ctx, ports.LimitOrder{Side: domain.Sell, Instrument: domain.TeamA, Quantity: 4, Price: 60})
	require.NoError(t, err)

	p.ApplyTrade(domain.TeamA, domain.Sell, 61, 10) // wrong direction
	assert.Empty(t, p.Drain())

	p.ApplyTrade(domain.TeamA, domain.Buy, 61, 3)
	fills := p.Drain()
	require.Len(t, fills, 1)
	assert.Equal(t, ports.Fill{Instrument: domain.TeamA, Side: domain.Sell, Price: 60, Quantity: 3, Capital: 1_180}, fills[0])
	assert.Equal(t, 1, p.OpenOrders())
}

func TestPaper_Cancel(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t)

	id, err := p.PlaceLimitOrder(ctx, ports.LimitOrder{Side: domain.Sell, Instrument: domain.TeamA, Quantity: 1, Price: 70})
	require.NoError(t, err)

	ok, err := p.CancelOrder(ctx, domain.TeamA, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.CancelOrder(ctx, domain.TeamA, id)
	require.NoError(t, err)
	assert.False(t, ok, "already gone")
}

func TestPaper_RejectsInvalidOrders(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t)

	for _, o := range []ports.LimitOrder{
		{Side: domain.Buy, Instrument: domain.TeamA, Quantity: 0, Price: 50},
		{Side: domain.Buy, Instrument: domain.TeamA, Quantity: 1, Price: 0},
		{Side: domain.Buy, Instrument: domain.TeamA, Quantity: 1, Price: 100},
		{Side: domain.Buy, Instrument: "TEAM_B", Quantity: 1, Price: 50},
	} {
		id, err := p.PlaceLimitOrder(ctx, o)
		assert.ErrorIs(t, err, venue.ErrInvalidOrder)
		assert.False(t, id.Valid())
	}
	assert.ErrorIs(t, p.PlaceMarketOrder(ctx, domain.Buy, domain.TeamA, -1), venue.ErrInvalidOrder)
}

func TestPaper_Reset(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t)
	_, err := p.PlaceLimitOrder(ctx, ports.LimitOrder{Side: domain.Buy, Instrument: domain.TeamA, Quantity: 1, Price: 40})
	require.NoError(t, err)
	require.NoError(t, p.PlaceMarketOrder(ctx, domain.Buy, domain.TeamA, 1))

	p.Reset(500)
	assert.Zero(t, p.OpenOrders())
	assert.Empty(t, p.Drain())
	assert.Equal(t, 500.0, p.Capital())
}
