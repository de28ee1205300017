package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an executed trade
type Side string

const (
	SideBuy       Side = "BUY"
	SideSell      Side = "SELL"
	SideSellFinal Side = "SELL_FINAL"
)

// IsSell returns true for both signal-driven and forced exits
func (s Side) IsSell() bool {
	return s == SideSell || s == SideSellFinal
}

// Trade is an executed fill recorded by the simulator.
// Trades are created at execution time and never mutated afterward.
type Trade struct {
	Side     Side            `json:"side" yaml:"side"`
	Time     time.Time       `json:"time" yaml:"time"`
	Price    decimal.Decimal `json:"price" yaml:"price"` // Reference close at Time
	Quantity int64           `json:"quantity" yaml:"quantity"`
}

// Notional returns price * quantity
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// IsValid checks if the trade has required fields
func (t Trade) IsValid() bool {
	return t.Side != "" && t.Quantity > 0 && t.Price.IsPositive()
}
