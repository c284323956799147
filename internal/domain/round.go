package domain

import "github.com/shopspring/decimal"

// RoundPrice rounds a price to cents.
func RoundPrice(p float64) float64 {
	return roundPlaces(p, 2)
}

// RoundQty rounds an order quantity to one decimal.
func RoundQty(q float64) float64 {
	return roundPlaces(q, 1)
}

func roundPlaces(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
