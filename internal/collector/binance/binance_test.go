package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/goldencross/internal/collector"
	"github.com/newthinker/goldencross/internal/core"
)

func TestBinance_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Binance)(nil)
}

func TestBinance_Name(t *testing.T) {
	assert.Equal(t, "binance", New().Name())
}

func kline(day time.Time, close string) string {
	open := day.UnixMilli()
	closeTime := day.Add(24*time.Hour).UnixMilli() - 1
	return fmt.Sprintf(`[%d,"1","1","1","%s","10",%d,"10",5,"1","1","0"]`, open, close, closeTime)
}

func TestBinance_FetchSeries(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	body := "[" + kline(d1, "42283.58") + "," + kline(d2, "44179.55") + "]"

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	series, err := b.FetchSeries(context.Background(), "btc-usdt", d1, d2.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "symbol=BTCUSDT")
	assert.Contains(t, gotQuery, "interval=1d")
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "btc-usdt", series.Symbol())
	assert.Equal(t, d1, series.At(0).Time)
	assert.Equal(t, 44179.55, series.At(1).Close.Unwrap())
}

func TestBinance_FetchSeries_InvalidSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	_, err := b.FetchSeries(context.Background(), "NOPE", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, core.ErrSymbolNotFound)
}

func TestBinance_FetchSeries_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":-1000,"msg":"internal"}`))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	_, err := b.FetchSeries(context.Background(), "BTCUSDT", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, core.ErrCollectorFailed)
}

func TestBinance_FetchSeries_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	_, err := b.FetchSeries(context.Background(), "BTCUSDT", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestToPoint(t *testing.T) {
	open := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	p, err := toPoint(&binance.Kline{OpenTime: open.UnixMilli(), Close: "63724.01"})
	require.NoError(t, err)
	assert.Equal(t, open, p.Time)
	assert.Equal(t, 63724.01, p.Close.Unwrap())

	_, err = toPoint(&binance.Kline{OpenTime: open.UnixMilli(), Close: "n/a"})
	assert.True(t, err != nil && strings.Contains(err.Error(), "2024-03-05"))
}
