package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/indicator"
	"github.com/newthinker/goldencross/internal/strategy/ma_crossover"
)

// SeriesProvider defines the interface for fetching a historical close series
type SeriesProvider interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error)
}

// Recorder receives run metrics. metrics.Registry satisfies it.
type Recorder interface {
	RecordBacktest(status string, duration float64)
	RecordTrade(side string)
	RecordPnL(symbol string, pnl float64)
}

// Backtester runs the crossover simulation against historical data
type Backtester struct {
	provider SeriesProvider
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Backtester
type Option func(*Backtester)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backtester) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(b *Backtester) {
		b.recorder = r
	}
}

// New creates a new Backtester with the given series provider
func New(provider SeriesProvider, opts ...Option) *Backtester {
	b := &Backtester{
		provider: provider,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run fetches the series for symbol over [start, end] and simulates it
func (b *Backtester) Run(ctx context.Context, symbol string, start, end time.Time, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	series, err := b.provider.FetchSeries(ctx, symbol, start, end)
	if err != nil {
		b.record("error", 0)
		return nil, err
	}

	if series.Len() == 0 {
		b.record("error", 0)
		return nil, core.ErrNoData
	}

	return b.Simulate(series, params)
}

// Simulate runs the strategy over an already validated series. The series
// is the only input, so callers may supply data from any source.
func (b *Backtester) Simulate(series core.PriceSeries, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	started := b.now()
	log := b.logger.With(zap.String("symbol", series.Symbol()))

	rule := ma_crossover.New(params.ShortWindow, params.LongWindow)
	short, long := rule.Windows()
	set := indicator.Compute(series, short, long)
	if !set.Warm() {
		log.Warn("no crossover can occur",
			zap.Error(core.ErrInsufficientData),
			zap.Int("bars", series.Len()),
			zap.Int("long_window", long))
	}

	budget := decimal.NewFromFloat(params.InitialBudget)
	outcome := Simulate(set, rule, budget, func(trade core.Trade) {
		log.Debug("trade executed",
			zap.String("side", string(trade.Side)),
			zap.Time("time", trade.Time),
			zap.String("price", trade.Price.String()),
			zap.Int64("quantity", trade.Quantity))
		if b.recorder != nil {
			b.recorder.RecordTrade(string(trade.Side))
		}
	})

	result := &Result{
		ID:            uuid.New().String(),
		Strategy:      rule.Name(),
		Symbol:        series.Symbol(),
		StartDate:     series.First(),
		EndDate:       series.Last(),
		Bars:          series.Len(),
		Params:        params,
		InitialBudget: outcome.InitialBudget,
		FinalCash:     outcome.FinalCash,
		FinalPnL:      outcome.FinalPnL,
		Trades:        outcome.Trades,
		Stats:         CalculateStats(outcome.Trades, outcome.InitialBudget),
	}

	b.record("success", b.now().Sub(started).Seconds())
	if b.recorder != nil {
		b.recorder.RecordPnL(result.Symbol, result.FinalPnL.InexactFloat64())
	}

	log.Info("backtest completed",
		zap.String("id", result.ID),
		zap.Int("trades", len(result.Trades)),
		zap.String("pnl", result.FinalPnL.StringFixed(2)))

	return result, nil
}

func (b *Backtester) record(status string, duration float64) {
	if b.recorder != nil {
		b.recorder.RecordBacktest(status, duration)
	}
}
