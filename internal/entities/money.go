package entities

import "math"

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Mul returns the price of n units, rounded to cents.
func (m Money) Mul(n int) Money {
	return Money{
		Amount:   math.Round(m.Amount*float64(n)*100) / 100,
		Currency: m.Currency,
	}
}
