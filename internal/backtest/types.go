package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/strategy/ma_crossover"
)

// DefaultBudget is the starting cash of a run
const DefaultBudget = 5000.0

// Params are the per-run simulation parameters
type Params struct {
	InitialBudget float64 `json:"initial_budget" yaml:"initial_budget"`
	ShortWindow   int     `json:"short_window" yaml:"short_window"`
	LongWindow    int     `json:"long_window" yaml:"long_window"`
}

// DefaultParams returns the classic 50/200 crossover with a 5000 budget
func DefaultParams() Params {
	return Params{
		InitialBudget: DefaultBudget,
		ShortWindow:   ma_crossover.DefaultShortWindow,
		LongWindow:    ma_crossover.DefaultLongWindow,
	}
}

// Validate rejects parameters that cannot produce a meaningful run
func (p Params) Validate() error {
	if !(p.InitialBudget > 0) || math.IsInf(p.InitialBudget, 0) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_budget must be positive and finite, got %v", p.InitialBudget))
	}
	if p.ShortWindow < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("short_window must be at least 1, got %d", p.ShortWindow))
	}
	if p.ShortWindow >= p.LongWindow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("short_window (%d) must be less than long_window (%d)", p.ShortWindow, p.LongWindow))
	}
	return nil
}

// Result holds the complete backtest output
type Result struct {
	ID            string          `json:"id" yaml:"id"`
	Strategy      string          `json:"strategy" yaml:"strategy"`
	Symbol        string          `json:"symbol" yaml:"symbol"`
	StartDate     time.Time       `json:"start_date" yaml:"start_date"`
	EndDate       time.Time       `json:"end_date" yaml:"end_date"`
	Bars          int             `json:"bars" yaml:"bars"`
	Params        Params          `json:"params" yaml:"params"`
	InitialBudget decimal.Decimal `json:"initial_budget" yaml:"initial_budget"`
	FinalCash     decimal.Decimal `json:"final_cash" yaml:"final_cash"`
	FinalPnL      decimal.Decimal `json:"final_pnl" yaml:"final_pnl"`
	Trades        []core.Trade    `json:"trades" yaml:"trades"`
	Stats         Stats           `json:"stats" yaml:"stats"`
}

// RoundTrip pairs an entry with the exit that closed it
type RoundTrip struct {
	Entry  core.Trade
	Exit   core.Trade
	PnL    decimal.Decimal
	Return float64 // Fractional return on the entry notional
}

// Stats holds performance statistics
type Stats struct {
	TotalTrades   int     `json:"total_trades" yaml:"total_trades"` // Round trips
	WinningTrades int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades  int     `json:"losing_trades" yaml:"losing_trades"`
	WinRate       float64 `json:"win_rate" yaml:"win_rate"`         // Percentage of profitable round trips
	TotalReturn   float64 `json:"total_return" yaml:"total_return"` // Net return percentage on the budget
	MaxDrawdown   float64 `json:"max_drawdown" yaml:"max_drawdown"` // Largest peak-to-trough decline
	SharpeRatio   float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"` // Per-trip Sharpe scaled by sqrt(round trips per year)
	ForcedExits   int     `json:"forced_exits" yaml:"forced_exits"` // Round trips closed by SELL_FINAL
}

// IsWin returns true if the round trip was profitable
func (r RoundTrip) IsWin() bool {
	return r.PnL.IsPositive()
}

// Forced returns true if the exit was the end-of-run liquidation
func (r RoundTrip) Forced() bool {
	return r.Exit.Side == core.SideSellFinal
}
