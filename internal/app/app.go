package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/goldencross/internal/backtest"
	"github.com/newthinker/goldencross/internal/collector"
	"github.com/newthinker/goldencross/internal/collector/binance"
	"github.com/newthinker/goldencross/internal/collector/csvfile"
	"github.com/newthinker/goldencross/internal/collector/polygon"
	"github.com/newthinker/goldencross/internal/collector/yahoo"
	"github.com/newthinker/goldencross/internal/config"
	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/metrics"
	"github.com/newthinker/goldencross/internal/report"
	"github.com/newthinker/goldencross/internal/storage/archive"
)

// PreviewTrades is how many trades the console summary shows per symbol
const PreviewTrades = 5

// Request describes one invocation: every symbol is backtested over the
// same period with the same parameters.
type Request struct {
	Symbols []string
	Start   time.Time
	End     time.Time
	Params  backtest.Params
}

// Outcome is the result of one symbol's run
type Outcome struct {
	Symbol   string
	Result   *backtest.Result
	Location string // Where the result file was written
	Err      error
}

// App wires the provider, simulator, reporter and metrics together
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collectors *collector.Registry
	metrics    *metrics.Registry
	storage    archive.Storage
	out        io.Writer
	reportOpts []report.Option
}

// Option configures an App
type Option func(*App)

// WithStorage overrides the result sink built from the output config
func WithStorage(s archive.Storage) Option {
	return func(a *App) {
		a.storage = s
	}
}

// WithOutput sets where the console summary is printed
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.out = w
	}
}

// WithReportOptions passes options through to the reporter
func WithReportOptions(opts ...report.Option) Option {
	return func(a *App) {
		a.reportOpts = append(a.reportOpts, opts...)
	}
}

// New creates a new App with the built-in collectors registered
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		out:        io.Discard,
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	a.collectors.Register(yahoo.New())
	a.collectors.Register(binance.New())
	a.collectors.Register(polygon.New())
	a.collectors.Register(csvfile.New())

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterCollector adds a collector to the app, replacing one of the same name
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// Collectors returns the names of the registered collectors
func (a *App) Collectors() []string {
	return a.collectors.Names()
}

// Metrics returns the metrics registry, nil when metrics are disabled
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Storage returns the result sink, opening it from config on first use
func (a *App) Storage() (archive.Storage, error) {
	if a.storage != nil {
		return a.storage, nil
	}
	s, err := archive.Open(archive.Config{
		Type: a.cfg.Output.Type,
		Path: a.cfg.Output.Path,
		S3: archive.S3Config{
			Bucket:    a.cfg.Output.S3.Bucket,
			Endpoint:  a.cfg.Output.S3.Endpoint,
			Region:    a.cfg.Output.S3.Region,
			AccessKey: a.cfg.Output.S3.AccessKey,
			SecretKey: a.cfg.Output.S3.SecretKey,
			Prefix:    a.cfg.Output.S3.Prefix,
		},
	})
	if err != nil {
		return nil, err
	}
	a.storage = s
	return s, nil
}

func (a *App) provider() (collector.Collector, error) {
	cc := a.cfg.Collector
	cfg := collector.Config{
		APIKey:        cc.APIKey,
		BaseURL:       cc.BaseURL,
		Path:          cc.Path,
		Timeout:       cc.Timeout,
		RatePerSecond: cc.RatePerSecond,
	}
	if a.metrics != nil {
		cfg.Transport = metrics.Transport(a.metrics, cc.Provider, a.logger, nil)
	}
	return a.collectors.Resolve(cc.Provider, cfg)
}

// Run backtests every requested symbol in turn, each from a fresh cash
// state. Invalid parameters or wiring abort before any symbol runs; a failing
// symbol is logged and reported in its Outcome while the rest continue. The
// returned error joins every per-symbol failure.
func (a *App) Run(ctx context.Context, req Request) ([]Outcome, error) {
	if len(req.Symbols) == 0 {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no symbol given"))
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	if !req.Start.IsZero() && !req.End.IsZero() && req.End.Before(req.Start) {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("end date %s is before start date %s",
				req.End.Format("2006-01-02"), req.Start.Format("2006-01-02")))
	}

	provider, err := a.provider()
	if err != nil {
		return nil, err
	}

	storage, err := a.Storage()
	if err != nil {
		return nil, err
	}

	format, err := report.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	reportOpts := append([]report.Option{
		report.WithLogger(a.logger),
		report.WithSymbolPrefix(len(req.Symbols) > 1),
	}, a.reportOpts...)
	reporter := report.New(storage, format, reportOpts...)

	btOpts := []backtest.Option{backtest.WithLogger(a.logger)}
	if a.metrics != nil {
		btOpts = append(btOpts, backtest.WithRecorder(a.metrics))
	}
	bt := backtest.New(provider, btOpts...)

	a.logger.Info("starting backtest",
		zap.Strings("symbols", req.Symbols),
		zap.String("provider", provider.Name()),
		zap.Float64("budget", req.Params.InitialBudget),
		zap.Int("short_window", req.Params.ShortWindow),
		zap.Int("long_window", req.Params.LongWindow))

	outcomes := make([]Outcome, 0, len(req.Symbols))
	var errs []error
	for _, symbol := range req.Symbols {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		outcome := a.runSymbol(ctx, bt, reporter, symbol, req)
		if outcome.Err != nil {
			a.logger.Error("backtest failed",
				zap.String("symbol", symbol),
				zap.Error(outcome.Err))
			fmt.Fprintf(a.out, "=== %s ===\nError: %v\n", symbol, outcome.Err)
			errs = append(errs, fmt.Errorf("%s: %w", symbol, outcome.Err))
		}
		outcomes = append(outcomes, outcome)
	}

	if a.metrics != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn("writing metrics textfile failed",
				zap.String("path", a.cfg.Metrics.Textfile),
				zap.Error(err))
		}
	}

	return outcomes, errors.Join(errs...)
}

func (a *App) runSymbol(ctx context.Context, bt *backtest.Backtester, reporter *report.Reporter, symbol string, req Request) Outcome {
	outcome := Outcome{Symbol: symbol}

	result, err := bt.Run(ctx, symbol, req.Start, req.End, req.Params)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Result = result

	location, err := reporter.Write(ctx, result)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Location = location

	if err := report.WriteSummary(a.out, result, PreviewTrades); err != nil {
		a.logger.Warn("printing summary failed", zap.Error(err))
	}
	fmt.Fprintf(a.out, "Results written to %s\n", location)
	return outcome
}

// ListResults returns the stored result files, newest name last
func (a *App) ListResults(ctx context.Context) ([]string, error) {
	storage, err := a.Storage()
	if err != nil {
		return nil, err
	}

	paths, err := storage.List(ctx, "")
	if err != nil {
		return nil, core.WrapError(core.ErrReportFailed, fmt.Errorf("listing results: %w", err))
	}

	var results []string
	for _, p := range paths {
		if strings.Contains(p, "trade_results_") {
			results = append(results, p)
		}
	}
	sort.Strings(results)
	return results, nil
}

// ReadResult returns the contents of a stored result file
func (a *App) ReadResult(ctx context.Context, name string) ([]byte, error) {
	storage, err := a.Storage()
	if err != nil {
		return nil, err
	}

	data, err := storage.Read(ctx, name)
	if err != nil {
		return nil, core.WrapError(core.ErrReportFailed, fmt.Errorf("reading %s: %w", name, err))
	}
	return data, nil
}
