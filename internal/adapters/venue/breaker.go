package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/sony/gobreaker"
)

// Breaker stops sending placements to a venue that keeps failing. After
// `failures` consecutive venue errors the circuit opens and placements are
// rejected locally until `cooldown` has passed; one probe is then let
// through. Orders the venue refuses as invalid do not count as failures.
// Cancels always pass so resting orders can still be pulled.
type Breaker struct {
	next ports.Venue
	cb   *gobreaker.CircuitBreaker
}

var _ ports.Venue = (*Breaker)(nil)

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next ports.Venue, failures uint32, cooldown time.Duration) *Breaker {
	failures = max(1, failures)
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "venue",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrInvalidOrder)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("breaker: state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// State reports the circuit state: closed, half-open or open.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) PlaceMarketOrder(ctx context.Context, side domain.Side, instrument domain.Instrument, quantity float64) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.PlaceMarketOrder(ctx, side, instrument, quantity)
	})
	if isOpen(err) {
		return fmt.Errorf("venue.PlaceMarketOrder: %w", err)
	}
	return err
}

func (b *Breaker) PlaceLimitOrder(ctx context.Context, o ports.LimitOrder) (domain.OrderID, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.PlaceLimitOrder(ctx, o)
	})
	if isOpen(err) {
		return "", fmt.Errorf("venue.PlaceLimitOrder: %w", err)
	}
	id, _ := res.(domain.OrderID)
	return id, err
}

func (b *Breaker) CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) (bool, error) {
	return b.next.CancelOrder(ctx, instrument, id)
}

func isOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
