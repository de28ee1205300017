// Package report renders backtest results and persists them as flat files.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/newthinker/goldencross/internal/backtest"
	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/storage/archive"
)

const (
	filePrefix = "trade_results_"
	timeLayout = "20060102_150405"
	dateLayout = "2006-01-02"
)

// Format is the encoding of a result file
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "txt", "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown report format %q", s))
	}
}

// Ext returns the file extension for the format
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// Reporter writes one timestamped file per backtest result
type Reporter struct {
	storage      archive.Storage
	format       Format
	symbolPrefix bool
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures a Reporter
type Option func(*Reporter)

// WithSymbolPrefix prefixes file names with the symbol, so that runs over
// several symbols within the same second do not collide
func WithSymbolPrefix(enabled bool) Option {
	return func(r *Reporter) {
		r.symbolPrefix = enabled
	}
}

// WithClock overrides the time source used in file names
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Reporter writing format files to storage
func New(storage archive.Storage, format Format, opts ...Option) *Reporter {
	r := &Reporter{
		storage: storage,
		format:  format,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName returns the base file name for result
func (r *Reporter) FileName(result *backtest.Result) string {
	name := filePrefix + r.now().Format(timeLayout) + r.format.Ext()
	if r.symbolPrefix {
		name = sanitize(result.Symbol) + "_" + name
	}
	return name
}

// Write renders result and stores it, returning the stored location. An
// existing file is never overwritten; a numeric suffix is added instead.
func (r *Reporter) Write(ctx context.Context, result *backtest.Result) (string, error) {
	data, err := Render(result, r.format)
	if err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}

	name, err := r.freeName(ctx, r.FileName(result))
	if err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}

	if err := r.storage.Write(ctx, name, data); err != nil {
		return "", core.WrapError(core.ErrReportFailed, fmt.Errorf("writing %s: %w", name, err))
	}

	location := r.storage.Location(name)
	r.logger.Info("result written",
		zap.String("symbol", result.Symbol),
		zap.String("location", location),
		zap.String("format", string(r.format)))
	return location, nil
}

func (r *Reporter) freeName(ctx context.Context, name string) (string, error) {
	ext := r.format.Ext()
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		exists, err := r.storage.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// Render encodes result in the given format
func Render(result *backtest.Result, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(result, "", "  ")
	case FormatYAML:
		return yaml.Marshal(result)
	default:
		var buf bytes.Buffer
		if err := WriteText(&buf, result); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// WriteText writes the plain text result: symbol, PnL and the trade table,
// followed by run details and statistics
func WriteText(w io.Writer, result *backtest.Result) error {
	fmt.Fprintf(w, "Symbol: %s\n", result.Symbol)
	fmt.Fprintf(w, "PnL: %s\n", result.FinalPnL.String())
	fmt.Fprintln(w, "Trades:")
	if err := writeTrades(w, result.Trades); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run: %s\n", result.ID)
	fmt.Fprintf(w, "Strategy: %s (%d/%d)\n", result.Strategy, result.Params.ShortWindow, result.Params.LongWindow)
	if result.Bars > 0 {
		fmt.Fprintf(w, "Period: %s to %s (%d bars)\n",
			result.StartDate.Format(dateLayout), result.EndDate.Format(dateLayout), result.Bars)
	}
	fmt.Fprintf(w, "Initial budget: %s\n", result.InitialBudget.StringFixed(2))
	fmt.Fprintf(w, "Final cash: %s\n", result.FinalCash.StringFixed(2))

	s := result.Stats
	fmt.Fprintf(w, "Round trips: %d (won %d, lost %d, win rate %.1f%%, forced exits %d)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate, s.ForcedExits)
	fmt.Fprintf(w, "Return: %.2f%%  Max drawdown: %.2f%%  Sharpe: %.2f\n",
		s.TotalReturn, s.MaxDrawdown, s.SharpeRatio)
	return nil
}

// WriteSummary prints the first limit trades and the PnL rounded to cents.
// A limit <= 0 prints every trade.
func WriteSummary(w io.Writer, result *backtest.Result, limit int) error {
	trades := result.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}

	fmt.Fprintf(w, "=== %s ===\n", result.Symbol)
	if len(result.Trades) == 0 {
		fmt.Fprintln(w, "No trades")
	} else {
		if err := writeTrades(w, trades); err != nil {
			return err
		}
		if len(trades) < len(result.Trades) {
			fmt.Fprintf(w, "... %d more\n", len(result.Trades)-len(trades))
		}
	}
	fmt.Fprintf(w, "PnL: %s\n", result.FinalPnL.StringFixed(2))
	return nil
}

func writeTrades(w io.Writer, trades []core.Trade) error {
	table := tablewriter.NewWriter(w)
	table.Header("Side", "Date", "Price", "Qty")

	for _, t := range trades {
		if err := table.Append(
			string(t.Side),
			t.Time.Format(dateLayout),
			t.Price.String(),
			fmt.Sprintf("%d", t.Quantity),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

// sanitize keeps symbols like BRK.B or ^GSPC usable in file names
func sanitize(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, symbol)
}
