package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned when a placement exceeds the order budget.
var ErrThrottled = errors.New("order rate limit exceeded")

// Throttled enforces a per-second placement budget in front of a venue.
// The agent never waits: an over-budget placement is rejected at once and
// the engine treats it like any other venue reject. Cancels always pass.
type Throttled struct {
	next    ports.Venue
	limiter *rate.Limiter
	now     func() time.Time
}

var _ ports.Venue = (*Throttled)(nil)

// NewThrottled allows perSecond placements with the given burst.
func NewThrottled(next ports.Venue, perSecond float64, burst int) *Throttled {
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(1, burst)),
		now:     time.Now,
	}
}

func (t *Throttled) allow(kind string, side domain.Side) bool {
	if t.limiter.AllowN(t.now(), 1) {
		return true
	}
	slog.Warn("throttle: placement rejected", "kind", kind, "side", side)
	return false
}

func (t *Throttled) PlaceMarketOrder(ctx context.Context, side domain.Side, instrument domain.Instrument, quantity float64) error {
	if !t.allow("market", side) {
		return fmt.Errorf("venue.PlaceMarketOrder: %w", ErrThrottled)
	}
	return t.next.PlaceMarketOrder(ctx, side, instrument, quantity)
}

func (t *Throttled) PlaceLimitOrder(ctx context.Context, o ports.LimitOrder) (domain.OrderID, error) {
	if !t.allow("limit", o.Side) {
		return "", fmt.Errorf("venue.PlaceLimitOrder: %w", ErrThrottled)
	}
	return t.next.PlaceLimitOrder(ctx, o)
}

func (t *Throttled) CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) (bool, error) {
	return t.next.CancelOrder(ctx, instrument, id)
}
