package domain

import (
	"fmt"
	"math"
)

// Money is an amount in minor units (cents) with an ISO 4217 currency code.
// All arithmetic stays in int64; floats only ever appear transiently inside
// a rounded multiplication.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}
}

// MulRound multiplies by a rate and rounds half-up to the nearest cent.
func (m Money) MulRound(rate float64) Money {
	return Money{
		Amount:   int64(math.Floor(float64(m.Amount)*rate + 0.5)),
		Currency: m.Currency,
	}
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
