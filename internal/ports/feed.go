package ports

import (
	"context"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// MessageKind tags a feed Message.
type MessageKind int

const (
	MsgUnknown MessageKind = iota
	MsgBookSnapshot
	MsgBookDelta
	MsgTrade
	MsgGameEvent
	MsgClock
)

func (k MessageKind) String() string {
	switch k {
	case MsgBookSnapshot:
		return "snapshot"
	case MsgBookDelta:
		return "book"
	case MsgTrade:
		return "trade"
	case MsgGameEvent:
		return "game"
	case MsgClock:
		return "clock"
	}
	return "unknown"
}

// Message is one decoded feed record. Which fields are set depends on Kind:
// book data uses Instrument/Side/Price/Quantity or Bids/Asks, game events use
// Event, clock ticks use Clock.
type Message struct {
	Kind       MessageKind
	Instrument domain.Instrument
	Side       domain.Side
	Price      float64
	Quantity   float64
	Bids       []domain.PriceLevel
	Asks       []domain.PriceLevel
	Event      domain.GameEvent
	Clock      float64
}

// EventSource yields feed messages one at a time. Next returns io.EOF once
// the source is exhausted.
type EventSource interface {
	Next(ctx context.Context) (Message, error)
}
