package domain

import (
	"fmt"
	"strings"
)

// Side is the direction of an order or a book level.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Sign is +1 for Buy and -1 for Sell.
func (s Side) Sign() float64 {
	if s == Sell {
		return -1
	}
	return 1
}

// ParseSide accepts "BUY"/"SELL" (any case) and the short "B"/"S"/"bid"/"ask" forms.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B", "BID":
		return Buy, nil
	case "SELL", "S", "ASK":
		return Sell, nil
	}
	return Buy, fmt.Errorf("domain.ParseSide: unknown side %q", s)
}

// Instrument identifies the single tradable contract.
type Instrument string

// TeamA is the home-team moneyline contract.
const TeamA Instrument = "TEAM_A"

// OrderID is the opaque handle the venue returns for a resting order.
// The zero value means the venue did not accept the order.
type OrderID string

// Valid reports whether the id refers to an accepted order.
func (id OrderID) Valid() bool { return id != "" }

// PriceFloor and PriceCeil bound every limit price sent to the venue.
const (
	PriceFloor = 0.01
	PriceCeil  = 99.99
)

// ClampPrice bounds a limit price into [PriceFloor, PriceCeil].
func ClampPrice(p float64) float64 {
	return max(PriceFloor, min(PriceCeil, p))
}
