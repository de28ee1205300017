package backtest

import (
	"math"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/indicator"
	"github.com/newthinker/goldencross/internal/strategy"
)

// fixedRule returns the same signal for every step
type fixedRule struct {
	signal strategy.Signal
	calls  int
}

func (f *fixedRule) Name() string        { return "fixed" }
func (f *fixedRule) Description() string { return "fixed signal" }
func (f *fixedRule) Windows() (int, int) { return 1, 2 }
func (f *fixedRule) Evaluate(prev, curr indicator.Row) strategy.Signal {
	f.calls++
	return f.signal
}

func definedRow(i int, price float64) indicator.Row {
	return indicator.Row{
		Time:           day(i),
		ShortMA:        optional.Some(price),
		LongMA:         optional.Some(price),
		ReferenceClose: optional.Some(price),
	}
}

func TestNewState_IsFlat(t *testing.T) {
	s := NewState(decimal.NewFromInt(5000))
	assert.True(t, s.Flat())
	assert.Empty(t, s.Trades)
	assertDecimal(t, "5000", s.Cash)
}

func TestState_ApplyEnterWhenFlat(t *testing.T) {
	s := NewState(decimal.NewFromInt(1000))
	tr, ok := s.Apply(&fixedRule{signal: strategy.SignalEnter}, definedRow(0, 30), definedRow(1, 30))

	require.True(t, ok)
	assertTrade(t, tr, core.SideBuy, 1, "30", 33)
	assert.Equal(t, int64(33), s.PositionQty)
	assertDecimal(t, "10", s.Cash)
	assert.Len(t, s.Trades, 1)
}

func TestState_ApplyEnterWhenLongIsIgnored(t *testing.T) {
	s := NewState(decimal.NewFromInt(1000))
	rule := &fixedRule{signal: strategy.SignalEnter}
	_, ok := s.Apply(rule, definedRow(0, 30), definedRow(1, 30))
	require.True(t, ok)

	_, ok = s.Apply(rule, definedRow(1, 30), definedRow(2, 20))
	assert.False(t, ok, "no pyramiding")
	assert.Equal(t, int64(33), s.PositionQty)
}

func TestState_ApplyExitWhenFlatIsIgnored(t *testing.T) {
	s := NewState(decimal.NewFromInt(1000))
	_, ok := s.Apply(&fixedRule{signal: strategy.SignalExit}, definedRow(0, 30), definedRow(1, 30))
	assert.False(t, ok, "no shorting")
	assert.True(t, s.Flat())
}

func TestState_ApplySkipsUndefinedRows(t *testing.T) {
	s := NewState(decimal.NewFromInt(1000))
	rule := &fixedRule{signal: strategy.SignalEnter}

	undefinedLong := definedRow(0, 30)
	undefinedLong.LongMA = optional.None[float64]()

	_, ok := s.Apply(rule, undefinedLong, definedRow(1, 30))
	assert.False(t, ok)
	_, ok = s.Apply(rule, definedRow(0, 30), undefinedLong)
	assert.False(t, ok)
	assert.Zero(t, rule.calls, "rule must not be consulted without both averages")
}

func TestState_ApplyFractionalCash(t *testing.T) {
	s := NewState(decimal.RequireFromString("99.99"))
	tr, ok := s.Apply(&fixedRule{signal: strategy.SignalEnter}, definedRow(0, 10), definedRow(1, 10))

	require.True(t, ok)
	assert.Equal(t, int64(9), tr.Quantity)
	assertDecimal(t, "9.99", s.Cash)
}

func TestState_ApplyCapsQuantity(t *testing.T) {
	budget := decimal.NewFromInt(100_000_000_000_000)
	s := NewState(budget)
	tr, ok := s.Apply(&fixedRule{signal: strategy.SignalEnter}, definedRow(0, 0.00001), definedRow(1, 0.00001))

	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), tr.Quantity)
	assert.True(t, tr.IsValid())
	assert.False(t, s.Cash.IsNegative())
	assert.True(t, s.Cash.LessThan(budget), "buying must spend cash")
	assertDecimal(t, budget.Sub(tr.Notional()).String(), s.Cash)
}

func TestState_LiquidateWhenLong(t *testing.T) {
	s := NewState(decimal.NewFromInt(100))
	_, ok := s.Apply(&fixedRule{signal: strategy.SignalEnter}, definedRow(0, 10), definedRow(1, 10))
	require.True(t, ok)

	tr, ok := s.Liquidate(definedRow(5, 12.5))
	require.True(t, ok)
	assertTrade(t, tr, core.SideSellFinal, 5, "12.5", 10)
	assert.True(t, s.Flat())
	assertDecimal(t, "125", s.Cash)
}

func TestState_LiquidateWhenFlat(t *testing.T) {
	s := NewState(decimal.NewFromInt(100))
	_, ok := s.Liquidate(definedRow(5, 12.5))
	assert.False(t, ok)
	assert.Empty(t, s.Trades)
}
