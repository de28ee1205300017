package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/newthinker/goldencross/internal/core"
)

// RoundTrips pairs each BUY with the SELL or SELL_FINAL that follows it.
// A trailing unmatched BUY is ignored.
func RoundTrips(trades []core.Trade) []RoundTrip {
	var trips []RoundTrip
	var entry *core.Trade

	for i := range trades {
		t := trades[i]
		switch {
		case t.Side == core.SideBuy:
			if entry == nil {
				entry = &trades[i]
			}
		case t.Side.IsSell():
			if entry == nil {
				continue
			}
			cost := entry.Notional()
			pnl := t.Notional().Sub(cost)
			var ret float64
			if cost.IsPositive() {
				ret = pnl.Div(cost).InexactFloat64()
			}
			trips = append(trips, RoundTrip{Entry: *entry, Exit: t, PnL: pnl, Return: ret})
			entry = nil
		}
	}

	return trips
}

// CalculateStats computes performance statistics from the trade log
func CalculateStats(trades []core.Trade, budget decimal.Decimal) Stats {
	trips := RoundTrips(trades)
	if len(trips) == 0 {
		return Stats{}
	}

	var winning, losing, forced int
	totalPnL := decimal.Zero
	returns := make([]float64, 0, len(trips))

	for _, rt := range trips {
		returns = append(returns, rt.Return)
		totalPnL = totalPnL.Add(rt.PnL)
		if rt.IsWin() {
			winning++
		} else {
			losing++
		}
		if rt.Forced() {
			forced++
		}
	}

	var totalReturn float64
	if budget.IsPositive() {
		totalReturn = totalPnL.Div(budget).InexactFloat64() * 100
	}

	return Stats{
		TotalTrades:   len(trips),
		WinningTrades: winning,
		LosingTrades:  losing,
		WinRate:       float64(winning) / float64(len(trips)) * 100,
		TotalReturn:   totalReturn,
		MaxDrawdown:   calculateMaxDrawdown(returns) * 100,
		SharpeRatio:   calculateSharpeRatio(returns, tripsPerYear(trips)),
		ForcedExits:   forced,
	}
}

// calculateMaxDrawdown finds the largest peak-to-trough decline
func calculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// tripsPerYear is the round-trip frequency over the span from the first
// entry to the last exit. Zero when the span is empty.
func tripsPerYear(trips []RoundTrip) float64 {
	if len(trips) == 0 {
		return 0
	}
	span := trips[len(trips)-1].Exit.Time.Sub(trips[0].Entry.Time)
	years := span.Hours() / 24 / 365.25
	if years <= 0 {
		return 0
	}
	return float64(len(trips)) / years
}

// calculateSharpeRatio computes the per-trip Sharpe ratio scaled by
// sqrt(perYear). A non-positive perYear leaves it unannualized.
// Assumes risk-free rate of 0 for simplicity
func calculateSharpeRatio(returns []float64, perYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 {
		return 0
	}

	sharpe := mean / stdDev
	if perYear > 0 {
		sharpe *= math.Sqrt(perYear)
	}
	return sharpe
}
