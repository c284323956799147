package domain

import (
	"errors"
	"fmt"
)

// ContractNotional is the settlement value of one contract, the top of the
// price domain. Exposure is |position| * ContractNotional, in capital units.
const ContractNotional = 100.0

// TradeSetting is the immutable strategy configuration.
type TradeSetting struct {
	MinEdge                float64
	MaxEdge                float64
	MaxExposurePct         float64
	MaxOrdersPerSide       int
	OrderLifetimeSec       float64
	SpreadCaptureThreshold float64
	InitialCapital         float64
	TakeProfitThreshold    float64

	// Market-making layer.
	InventorySkew float64 // gamma: reservation = fair - gamma*position
	HalfSpread    float64
	QuoteEdge     float64 // edge used to size passive quotes

	// Offsets from fair for directional and spread-capture orders.
	DirectionalBuffer float64
	CaptureBuffer     float64

	// Sizing.
	EdgeSizeDivisor float64 // edge-proportional size = edge / EdgeSizeDivisor
	CapitalFraction float64 // of capital_remaining / ContractNotional
	MinClip         float64
}

// DefaultTradeSetting mirrors the production constants.
func DefaultTradeSetting() TradeSetting {
	return TradeSetting{
		MinEdge:                10,
		MaxEdge:                30,
		MaxExposurePct:         70,
		MaxOrdersPerSide:       25,
		OrderLifetimeSec:       5,
		SpreadCaptureThreshold: 10,
		InitialCapital:         100_000,
		TakeProfitThreshold:    2,
		InventorySkew:          0.05,
		HalfSpread:             0.5,
		QuoteEdge:              3,
		DirectionalBuffer:      5,
		CaptureBuffer:          3,
		EdgeSizeDivisor:        100,
		CapitalFraction:        0.1,
		MinClip:                1,
	}
}

// MaxExposure is the exposure cap in capital units.
func (s TradeSetting) MaxExposure() float64 {
	return s.MaxExposurePct * s.InitialCapital / 100
}

// MaxPosition is the largest |position| the cap allows, in contracts.
func (s TradeSetting) MaxPosition() float64 {
	return s.MaxExposure() / ContractNotional
}

// Validate rejects configurations the engine cannot run with.
func (s TradeSetting) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(s.MinEdge >= 0, "min_edge must be >= 0, got %v", s.MinEdge)
	check(s.MaxEdge >= s.MinEdge, "max_edge (%v) must be >= min_edge (%v)", s.MaxEdge, s.MinEdge)
	check(s.MaxExposurePct > 0 && s.MaxExposurePct <= 100, "max_exposure_pct must be in (0,100], got %v", s.MaxExposurePct)
	check(s.MaxOrdersPerSide > 0, "max_orders_per_side must be > 0, got %d", s.MaxOrdersPerSide)
	check(s.OrderLifetimeSec > 0, "order_lifetime_sec must be > 0, got %v", s.OrderLifetimeSec)
	check(s.SpreadCaptureThreshold >= 0, "spread_capture_threshold must be >= 0, got %v", s.SpreadCaptureThreshold)
	check(s.InitialCapital > 0, "initial_capital must be > 0, got %v", s.InitialCapital)
	check(s.TakeProfitThreshold >= 0, "take_profit_threshold must be >= 0, got %v", s.TakeProfitThreshold)
	check(s.InventorySkew >= 0, "inventory_skew must be >= 0, got %v", s.InventorySkew)
	check(s.HalfSpread >= 0, "half_spread must be >= 0, got %v", s.HalfSpread)
	check(s.EdgeSizeDivisor > 0, "edge_size_divisor must be > 0, got %v", s.EdgeSizeDivisor)
	check(s.CapitalFraction > 0, "capital_fraction must be > 0, got %v", s.CapitalFraction)
	check(s.MinClip > 0, "min_clip must be > 0, got %v", s.MinClip)
	if len(errs) > 0 {
		return fmt.Errorf("domain.TradeSetting: %w", errors.Join(errs...))
	}
	return nil
}
