package ports

import (
	"context"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// LimitOrder is a limit placement request.
type LimitOrder struct {
	Side       domain.Side
	Instrument domain.Instrument
	Quantity   float64
	Price      float64
	IOC        bool // immediate-or-cancel: never rests
}

// Venue is the exchange the agent trades on. Calls are fire-and-forget:
// confirmations and fills arrive later as account updates.
type Venue interface {
	// PlaceMarketOrder sends a marketable order for quantity.
	PlaceMarketOrder(ctx context.Context, side domain.Side, instrument domain.Instrument, quantity float64) error

	// PlaceLimitOrder returns the resting order's id. A zero id (with or
	// without an error) means the venue did not accept the order.
	PlaceLimitOrder(ctx context.Context, order LimitOrder) (domain.OrderID, error)

	// CancelOrder returns false if the order was no longer cancellable.
	CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) (bool, error)
}

// Fill is one of the agent's own executions, delivered as an account update.
type Fill struct {
	Instrument domain.Instrument
	Side       domain.Side
	Price      float64
	Quantity   float64
	Capital    float64 // capital remaining after this fill
}
