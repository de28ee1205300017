package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/goldencross/internal/backtest"
	"github.com/newthinker/goldencross/internal/collector"
	"github.com/newthinker/goldencross/internal/config"
	"github.com/newthinker/goldencross/internal/core"
	"github.com/newthinker/goldencross/internal/report"
	"github.com/newthinker/goldencross/internal/storage/archive"
)

type mockCollector struct {
	closes map[string][]float64
	calls  []string
	cfg    collector.Config
}

func (m *mockCollector) Name() string { return "mock" }

func (m *mockCollector) Init(cfg collector.Config) error {
	m.cfg = cfg
	return nil
}

func (m *mockCollector) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	m.calls = append(m.calls, symbol)
	closes, ok := m.closes[symbol]
	if !ok {
		return core.PriceSeries{}, core.WrapError(core.ErrSymbolNotFound, errors.New(symbol))
	}
	points := make([]core.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = core.Observed(time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC), c)
	}
	return core.NewPriceSeries(symbol, points)
}

func newTestApp(t *testing.T, mc *mockCollector, metricsEnabled bool) (*App, *bytes.Buffer, archive.Storage) {
	t.Helper()
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.Collector.Provider = "mock"
	cfg.Metrics.Enabled = metricsEnabled

	var out bytes.Buffer
	clock := func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	a := New(cfg, nil, WithStorage(store), WithOutput(&out), WithReportOptions(report.WithClock(clock)))
	a.RegisterCollector(mc)
	return a, &out, store
}

func smallParams() backtest.Params {
	return backtest.Params{InitialBudget: 100, ShortWindow: 1, LongWindow: 2}
}

func TestApp_New(t *testing.T) {
	a := New(config.Defaults(), nil)
	require.NotNil(t, a)
	assert.Equal(t, []string{"binance", "csv", "polygon", "yahoo"}, a.Collectors())
	assert.NotNil(t, a.Metrics())

	cfg := config.Defaults()
	cfg.Metrics.Enabled = false
	assert.Nil(t, New(cfg, nil).Metrics())
}

func TestApp_Run_SingleSymbol(t *testing.T) {
	mc := &mockCollector{closes: map[string][]float64{"AAPL": {10, 8, 12, 15, 9}}}
	a, out, store := newTestApp(t, mc, true)

	outcomes, err := a.Run(context.Background(), Request{Symbols: []string{"AAPL"}, Params: smallParams()})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	res := outcomes[0].Result
	require.NotNil(t, res)
	assert.Equal(t, "-24", res.FinalPnL.String())
	require.Len(t, res.Trades, 2)

	assert.Equal(t, store.Location("trade_results_20240601_093000.txt"), outcomes[0].Location)
	data, err := store.Read(context.Background(), "trade_results_20240601_093000.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Symbol: AAPL\nPnL: -24\nTrades:\n"))

	assert.Contains(t, out.String(), "=== AAPL ===")
	assert.Contains(t, out.String(), "PnL: -24.00")
	assert.Contains(t, out.String(), "Results written to")

	// the provider was handed an instrumented transport
	assert.NotNil(t, mc.cfg.Transport)
}

func TestApp_Run_MultipleSymbols(t *testing.T) {
	mc := &mockCollector{closes: map[string][]float64{
		"AAPL": {10, 8, 12, 15, 9},
		"MSFT": {10, 8, 12, 15},
	}}
	a, _, _ := newTestApp(t, mc, false)

	outcomes, err := a.Run(context.Background(), Request{Symbols: []string{"AAPL", "MSFT"}, Params: smallParams()})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, mc.calls)

	// each symbol starts from the full budget
	assert.Equal(t, "-24", outcomes[0].Result.FinalPnL.String())
	assert.Equal(t, "24", outcomes[1].Result.FinalPnL.String())
	assert.Equal(t, core.SideSellFinal, outcomes[1].Result.Trades[1].Side)

	files, err := a.ListResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"AAPL_trade_results_20240601_093000.txt",
		"MSFT_trade_results_20240601_093000.txt",
	}, files)

	data, err := a.ReadResult(context.Background(), files[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Symbol: MSFT")
}

func TestApp_Run_SymbolFailureContinues(t *testing.T) {
	mc := &mockCollector{closes: map[string][]float64{"MSFT": {10, 8, 12, 15}}}
	a, out, _ := newTestApp(t, mc, false)

	outcomes, err := a.Run(context.Background(), Request{Symbols: []string{"NOPE", "MSFT"}, Params: smallParams()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSymbolNotFound))
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
	assert.NotNil(t, outcomes[1].Result)
	assert.Contains(t, out.String(), "=== NOPE ===\nError:")
}

func TestApp_Run_InvalidParams(t *testing.T) {
	mc := &mockCollector{closes: map[string][]float64{"AAPL": {10, 8, 12}}}
	a, _, _ := newTestApp(t, mc, false)

	_, err := a.Run(context.Background(), Request{
		Symbols: []string{"AAPL"},
		Params:  backtest.Params{InitialBudget: 100, ShortWindow: 5, LongWindow: 5},
	})
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
	assert.Empty(t, mc.calls, "no data is fetched for invalid parameters")
}

func TestApp_Run_Validation(t *testing.T) {
	mc := &mockCollector{}
	a, _, _ := newTestApp(t, mc, false)

	_, err := a.Run(context.Background(), Request{Params: smallParams()})
	assert.True(t, errors.Is(err, core.ErrConfigMissing))

	_, err = a.Run(context.Background(), Request{
		Symbols: []string{"AAPL"},
		Start:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Params:  smallParams(),
	})
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestApp_Run_UnknownProvider(t *testing.T) {
	a, _, _ := newTestApp(t, &mockCollector{}, false)
	a.cfg.Collector.Provider = "bloomberg"

	_, err := a.Run(context.Background(), Request{Symbols: []string{"AAPL"}, Params: smallParams()})
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestApp_Run_WritesMetricsTextfile(t *testing.T) {
	mc := &mockCollector{closes: map[string][]float64{"AAPL": {10, 8, 12, 15, 9}}}
	a, _, _ := newTestApp(t, mc, true)
	path := filepath.Join(t.TempDir(), "goldencross.prom")
	a.cfg.Metrics.Textfile = path

	_, err := a.Run(context.Background(), Request{Symbols: []string{"AAPL"}, Params: smallParams()})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `goldencross_trades_total{side="BUY"} 1`)
	assert.Contains(t, string(data), `goldencross_last_pnl{symbol="AAPL"} -24`)
}

func TestApp_Storage_FromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Output.Path = t.TempDir()

	s, err := New(cfg, nil).Storage()
	require.NoError(t, err)
	assert.IsType(t, &archive.LocalFS{}, s)

	cfg = config.Defaults()
	cfg.Output.Type = "s3"
	_, err = New(cfg, nil).Storage()
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}
