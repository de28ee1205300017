package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/indicator"
	"github.com/newthinker/goldencross/internal/strategy"
)

// TradeHook observes each trade as it is executed
type TradeHook func(trade core.Trade)

// Outcome is the end state of a simulation
type Outcome struct {
	InitialBudget decimal.Decimal
	FinalCash     decimal.Decimal
	FinalPnL      decimal.Decimal
	Trades        []core.Trade
}

// Simulate folds the rule over the aligned indicator rows in a single pass,
// keeping only the previous row, and liquidates any open position at the
// last row. The returned outcome is always flat.
func Simulate(set indicator.Set, rule strategy.Rule, budget decimal.Decimal, hooks ...TradeHook) Outcome {
	state := NewState(budget)
	notify := func(trade core.Trade) {
		for _, h := range hooks {
			h(trade)
		}
	}

	if set.Len() > 0 {
		prev := set.At(0)
		for i := 1; i < set.Len(); i++ {
			curr := set.At(i)
			if trade, ok := state.Apply(rule, prev, curr); ok {
				notify(trade)
			}
			prev = curr
		}

		if trade, ok := state.Liquidate(prev); ok {
			notify(trade)
		}
	}

	return Outcome{
		InitialBudget: budget,
		FinalCash:     state.Cash,
		FinalPnL:      state.Cash.Sub(budget),
		Trades:        state.Trades,
	}
}
