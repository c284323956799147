package venue

import (
	"context"
	"errors"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the agent's prometheus collectors.
type Metrics struct {
	Orders    *prometheus.CounterVec // kind, side, result
	Cancels   *prometheus.CounterVec // confirmed
	Fills     *prometheus.CounterVec // side
	FillQty   *prometheus.CounterVec // side
	Position  prometheus.Gauge
	Fair      prometheus.Gauge
	Capital   prometheus.Gauge
	Resting   prometheus.Gauge
	GameClock prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_orders_total",
			Help: "Order placements sent to the venue by kind, side and result",
		}, []string{"kind", "side", "result"}),
		Cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_cancels_total",
			Help: "Cancel requests by whether the venue confirmed them",
		}, []string{"confirmed"}),
		Fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_fills_total",
			Help: "Fills reported by the venue",
		}, []string{"side"}),
		FillQty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_fill_quantity_total",
			Help: "Contracts filled",
		}, []string{"side"}),
		Position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_position_contracts",
			Help: "Signed position in contracts",
		}),
		Fair: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_fair_price",
			Help: "Current fair value on the 0-100 price scale",
		}),
		Capital: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_capital_remaining",
			Help: "Capital remaining as reported by the venue",
		}),
		Resting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_resting_orders",
			Help: "Orders tracked as resting by the agent",
		}),
		GameClock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_game_clock_seconds",
			Help: "Seconds remaining in the game",
		}),
	}
	reg.MustRegister(m.Orders, m.Cancels, m.Fills, m.FillQty, m.Position, m.Fair, m.Capital, m.Resting, m.GameClock)
	return m
}

// ObserveFill counts one fill.
func (m *Metrics) ObserveFill(side domain.Side, quantity float64) {
	m.Fills.WithLabelValues(side.String()).Inc()
	m.FillQty.WithLabelValues(side.String()).Add(quantity)
}

// ObserveState sets the state gauges.
func (m *Metrics) ObserveState(clock, fair, position, capital float64, resting int) {
	m.GameClock.Set(clock)
	m.Fair.Set(fair)
	m.Position.Set(position)
	m.Capital.Set(capital)
	m.Resting.Set(float64(resting))
}

// Instrumented counts every call that goes through it.
type Instrumented struct {
	next    ports.Venue
	metrics *Metrics
}

var _ ports.Venue = (*Instrumented)(nil)

// NewInstrumented wraps next.
func NewInstrumented(next ports.Venue, m *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (v *Instrumented) PlaceMarketOrder(ctx context.Context, side domain.Side, instrument domain.Instrument, quantity float64) error {
	err := v.next.PlaceMarketOrder(ctx, side, instrument, quantity)
	v.metrics.Orders.WithLabelValues("market", side.String(), result(err, true)).Inc()
	return err
}

func (v *Instrumented) PlaceLimitOrder(ctx context.Context, o ports.LimitOrder) (domain.OrderID, error) {
	id, err := v.next.PlaceLimitOrder(ctx, o)
	kind := "limit"
	if o.IOC {
		kind = "ioc"
	}
	v.metrics.Orders.WithLabelValues(kind, o.Side.String(), result(err, id.Valid())).Inc()
	return id, err
}

func (v *Instrumented) CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) (bool, error) {
	ok, err := v.next.CancelOrder(ctx, instrument, id)
	label := "false"
	if ok {
		label = "true"
	}
	v.metrics.Cancels.WithLabelValues(label).Inc()
	return ok, err
}

func result(err error, accepted bool) string {
	switch {
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case isOpen(err):
		return "circuit_open"
	case err != nil || !accepted:
		return "rejected"
	}
	return "accepted"
}
