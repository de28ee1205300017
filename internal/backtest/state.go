package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/indicator"
	"github.com/newthinker/goldencross/internal/strategy"
)

// SimulationState is the cash and position of one run. It is owned by a
// single run and must not be reused across symbols or date ranges.
type SimulationState struct {
	Cash        decimal.Decimal
	PositionQty int64
	Trades      []core.Trade
}

// NewState creates a flat state holding the whole budget in cash
func NewState(budget decimal.Decimal) *SimulationState {
	return &SimulationState{Cash: budget}
}

// Flat reports whether no position is open
func (s *SimulationState) Flat() bool {
	return s.PositionQty == 0
}

// Apply executes the rule's decision for the step prev -> curr. At most one
// trade results: entries only fire when flat, exits only when long.
func (s *SimulationState) Apply(rule strategy.Rule, prev, curr indicator.Row) (core.Trade, bool) {
	if !prev.Defined() || !curr.Defined() || curr.ReferenceClose.IsNone() {
		return core.Trade{}, false
	}

	signal := rule.Evaluate(prev, curr)
	switch {
	case s.Flat() && signal == strategy.SignalEnter:
		return s.buy(curr)
	case !s.Flat() && signal == strategy.SignalExit:
		return s.sell(core.SideSell, curr), true
	}
	return core.Trade{}, false
}

// Liquidate closes an open position at the last row's reference close
func (s *SimulationState) Liquidate(last indicator.Row) (core.Trade, bool) {
	if s.Flat() || last.ReferenceClose.IsNone() {
		return core.Trade{}, false
	}
	return s.sell(core.SideSellFinal, last), true
}

// maxQuantity bounds a single fill to what Trade.Quantity can hold
var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// buy spends as much cash as whole units allow, up to maxQuantity units.
// Nothing happens when the cash does not cover a single unit.
func (s *SimulationState) buy(row indicator.Row) (core.Trade, bool) {
	price := decimal.NewFromFloat(row.ReferenceClose.Unwrap())
	qty, _ := s.Cash.QuoRem(price, 0)
	if !qty.IsPositive() {
		return core.Trade{}, false
	}
	if qty.GreaterThan(maxQuantity) {
		qty = maxQuantity
	}

	trade := core.Trade{
		Side:     core.SideBuy,
		Time:     row.Time,
		Price:    price,
		Quantity: qty.IntPart(),
	}
	s.Cash = s.Cash.Sub(trade.Notional())
	s.PositionQty = trade.Quantity
	s.Trades = append(s.Trades, trade)
	return trade, true
}

func (s *SimulationState) sell(side core.Side, row indicator.Row) core.Trade {
	trade := core.Trade{
		Side:     side,
		Time:     row.Time,
		Price:    decimal.NewFromFloat(row.ReferenceClose.Unwrap()),
		Quantity: s.PositionQty,
	}
	s.Cash = s.Cash.Add(trade.Notional())
	s.PositionQty = 0
	s.Trades = append(s.Trades, trade)
	return trade
}
