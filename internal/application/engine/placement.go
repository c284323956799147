package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// inflightOrder is quantity the venue may still fill that the ledger no
// longer tracks: a marketable order whose fills have not all arrived, or a
// resting order whose cancel the venue did not confirm. It counts against
// exposure until its fill arrives or its lifetime runs out.
type inflightOrder struct {
	side      domain.Side
	remaining float64
	sentAt    float64
	layer     domain.Layer

	// set for a resting order whose cancel was not confirmed
	unconfirmed bool
	price       float64
}

func (e *Engine) inflightQty(side domain.Side) float64 {
	var q float64
	for _, o := range e.inflight {
		if o.side == side {
			q += o.remaining
		}
	}
	return q
}

func (e *Engine) hasInflight(layer domain.Layer) bool {
	for _, o := range e.inflight {
		if o.layer == layer && !o.unconfirmed {
			return true
		}
	}
	return false
}

// consumeInflight attributes an unmatched fill to the oldest in-flight orders
// on the same side.
func (e *Engine) consumeInflight(side domain.Side, quantity float64) {
	kept := e.inflight[:0]
	for _, o := range e.inflight {
		if o.side == side && quantity > 0 {
			take := math.Min(o.remaining, quantity)
			o.remaining = domain.RoundQty(o.remaining - take)
			quantity -= take
		}
		if o.remaining > 0 {
			kept = append(kept, o)
		}
	}
	e.inflight = kept
}

// consumeUnconfirmed attributes a fill to the oldest unconfirmed cancel at the
// same price that can absorb all of it.
func (e *Engine) consumeUnconfirmed(side domain.Side, price, quantity float64) bool {
	for i, o := range e.inflight {
		if !o.unconfirmed || o.side != side || !domain.SamePriceLevel(o.price, price) || o.remaining < quantity-1e-9 {
			continue
		}
		if rem := domain.RoundQty(o.remaining - quantity); rem > 0 {
			e.inflight[i].remaining = rem
		} else {
			e.inflight = append(e.inflight[:i], e.inflight[i+1:]...)
		}
		return true
	}
	return false
}

func (e *Engine) clearInflight(layer domain.Layer) {
	kept := e.inflight[:0]
	for _, o := range e.inflight {
		if o.layer != layer || o.unconfirmed {
			kept = append(kept, o)
		}
	}
	e.inflight = kept
}

func (e *Engine) expireInflight() {
	ttl := e.settings.OrderLifetimeSec
	kept := e.inflight[:0]
	for _, o := range e.inflight {
		if math.Abs(o.sentAt-e.now) <= ttl {
			kept = append(kept, o)
		}
	}
	e.inflight = kept
}

// placeSmartOrder prices an order off target, sizes it by edge, runs it
// through the risk gate and sends it. Buys are priced at target-buffer and
// sells at target+buffer. It reports whether the venue accepted the order.
func (e *Engine) placeSmartOrder(ctx context.Context, side domain.Side, target, buffer, edge float64, kind orderKind, layer domain.Layer) bool {
	if e.sideFull(ctx, side, kind, layer) {
		return false
	}
	price := domain.ClampPrice(domain.RoundPrice(target - side.Sign()*buffer))
	qty := e.CalculateOrderQuantity(side, edge)
	return e.place(ctx, side, price, qty, kind, layer)
}

// sideFull reports, and journals, that side already holds the maximum number
// of resting orders.
func (e *Engine) sideFull(ctx context.Context, side domain.Side, kind orderKind, layer domain.Layer) bool {
	if e.ledger.CountSide(side) < e.settings.MaxOrdersPerSide {
		return false
	}
	e.reject(ctx, side, 0, 0, kind, layer, skipReasonMaxOrders)
	return true
}

// place sends an already priced and sized order.
func (e *Engine) place(ctx context.Context, side domain.Side, price, quantity float64, kind orderKind, layer domain.Layer) bool {
	if reason := e.gateCheck(side, price, quantity, kind); reason != skipReasonNone {
		e.reject(ctx, side, price, quantity, kind, layer, reason)
		return false
	}

	switch kind {
	case kindMarket:
		if err := e.venue.PlaceMarketOrder(ctx, side, e.instrument, quantity); err != nil {
			slog.Warn("engine: market order failed", "side", side, "qty", quantity, "layer", layer, "err", err)
			e.reject(ctx, side, 0, quantity, kind, layer, skipReasonVenue)
			return false
		}
		e.counters.market++
		e.inflight = append(e.inflight, inflightOrder{side: side, remaining: quantity, sentAt: e.now, layer: layer})
		e.recordOrder(ctx, "", side, 0, quantity, kind, layer, skipReasonNone)
		slog.Info("engine: market order sent", "side", side, "qty", quantity, "layer", layer,
			"fair", fmt.Sprintf("%.2f", e.fair.Fair()))
		return true

	default:
		id, err := e.venue.PlaceLimitOrder(ctx, ports.LimitOrder{
			Side:       side,
			Instrument: e.instrument,
			Quantity:   quantity,
			Price:      price,
			IOC:        kind == kindIOC,
		})
		if err != nil || !id.Valid() {
			if err != nil {
				slog.Warn("engine: limit order failed", "side", side, "price", price, "qty", quantity, "err", err)
			}
			e.reject(ctx, side, price, quantity, kind, layer, skipReasonVenue)
			return false
		}
		if kind == kindIOC {
			e.inflight = append(e.inflight, inflightOrder{side: side, remaining: quantity, sentAt: e.now, layer: layer})
		} else {
			e.ledger.RecordPlacement(id, side, price, quantity, e.now, layer)
		}
		e.recordOrder(ctx, id, side, price, quantity, kind, layer, skipReasonNone)
		slog.Info("engine: limit order placed",
			"id", id,
			"side", side,
			"price", fmt.Sprintf("%.2f", price),
			"qty", quantity,
			"layer", layer,
			"ioc", kind == kindIOC,
			"fair", fmt.Sprintf("%.2f", e.fair.Fair()),
		)
		return true
	}
}

func (e *Engine) reject(ctx context.Context, side domain.Side, price, quantity float64, kind orderKind, layer domain.Layer, reason skipReason) {
	e.counters.rejected++
	slog.Debug("engine: order skipped",
		"side", side,
		"price", fmt.Sprintf("%.2f", price),
		"qty", quantity,
		"layer", layer,
		"reason", reason,
	)
	e.recordOrder(ctx, "", side, price, quantity, kind, layer, reason)
}

// cancel asks the venue to cancel o, which must already be out of the ledger.
// When the venue does not confirm, the order may have filled, so its remaining
// quantity stays in flight until the fill arrives or its lifetime runs out.
func (e *Engine) cancel(ctx context.Context, o domain.OpenOrder, reason string) {
	id := o.ID
	ok, err := e.venue.CancelOrder(ctx, e.instrument, id)
	if err != nil {
		slog.Warn("engine: cancel failed", "id", id, "reason", reason, "err", err)
	}
	if !ok {
		e.inflight = append(e.inflight, inflightOrder{
			side:        o.Side,
			remaining:   o.Remaining,
			sentAt:      e.now,
			layer:       o.Layer,
			unconfirmed: true,
			price:       o.Price,
		})
		slog.Debug("engine: cancel unconfirmed, holding exposure", "id", id, "side", o.Side, "qty", o.Remaining)
	}
	e.counters.cancelled++
	rec := ports.CancelRecord{
		OrderID:    id,
		Reason:     reason,
		Confirmed:  ok,
		GameClock:  e.now,
		RecordedAt: time.Now().UTC(),
	}
	if err := e.journal.SaveCancel(ctx, e.sessionID, rec); err != nil {
		slog.Warn("engine: journal cancel failed", "id", id, "err", err)
	}
}

// cancelAll drops every resting order.
func (e *Engine) cancelAll(ctx context.Context, reason string) {
	for _, o := range e.ledger.CancelAll() {
		e.cancel(ctx, o, reason)
	}
}

func (e *Engine) recordOrder(ctx context.Context, id domain.OrderID, side domain.Side, price, quantity float64, kind orderKind, layer domain.Layer, reason skipReason) {
	rec := ports.OrderRecord{
		OrderID:    id,
		Side:       side,
		Layer:      layer,
		Price:      price,
		Quantity:   quantity,
		Market:     kind == kindMarket,
		Accepted:   reason == skipReasonNone,
		Reason:     reason.String(),
		GameClock:  e.now,
		FairPrice:  e.fair.Fair(),
		RecordedAt: time.Now().UTC(),
	}
	if err := e.journal.SaveOrder(ctx, e.sessionID, rec); err != nil {
		slog.Warn("engine: journal order failed", "err", err)
	}
}

func (e *Engine) recordFill(ctx context.Context, side domain.Side, price, quantity float64, res domain.FillResult) {
	rec := ports.FillRecord{
		OrderID:          res.OrderID,
		Side:             side,
		Price:            price,
		Quantity:         quantity,
		PositionAfter:    res.PositionAfter,
		CapitalRemaining: e.ledger.Capital(),
		Realized:         res.Realized,
		GameClock:        e.now,
		RecordedAt:       time.Now().UTC(),
	}
	if err := e.journal.SaveFill(ctx, e.sessionID, rec); err != nil {
		slog.Warn("engine: journal fill failed", "err", err)
	}
}

type nopJournal struct{}

func (nopJournal) StartSession(context.Context, string, time.Time) error { return nil }
func (nopJournal) SaveOrder(context.Context, string, ports.OrderRecord) error { return nil }
func (nopJournal) SaveCancel(context.Context, string, ports.CancelRecord) error { return nil }
func (nopJournal) SaveFill(context.Context, string, ports.FillRecord) error { return nil }
func (nopJournal) SaveGameSummary(context.Context, ports.GameSummary) error { return nil }
