package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"golang.org/x/time/rate"

	"github.com/newthinker/goldencross/internal/collector"
	"github.com/newthinker/goldencross/internal/core"
)

const (
	defaultTimeout = 10 * time.Second
	pageSize       = 1000
	dailyInterval  = "1d"

	// Binance error code for an unknown trading pair
	codeInvalidSymbol = -1121
)

// Binance implements a collector backed by Binance spot daily klines.
// Symbols are trading pairs such as BTCUSDT.
type Binance struct {
	client  *binance.Client
	limiter *rate.Limiter
}

// New creates a new Binance collector using the public market data API
func New() *Binance {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: defaultTimeout}
	return &Binance{
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func (b *Binance) Name() string {
	return "binance"
}

func (b *Binance) Init(cfg collector.Config) error {
	if cfg.APIKey != "" {
		b.client.APIKey = cfg.APIKey
	}
	if cfg.BaseURL != "" {
		b.client.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		b.client.HTTPClient.Timeout = cfg.Timeout
	}
	if cfg.Transport != nil {
		b.client.HTTPClient.Transport = cfg.Transport
	}
	if cfg.RatePerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return nil
}

// FetchSeries pages through daily klines for symbol between start and end
func (b *Binance) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	pair := strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))

	var points []core.PricePoint
	from := start.UnixMilli()
	to := end.UnixMilli()
	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return core.PriceSeries{}, err
		}

		klines, err := b.client.NewKlinesService().
			Symbol(pair).
			Interval(dailyInterval).
			StartTime(from).
			EndTime(to).
			Limit(pageSize).
			Do(ctx)
		if err != nil {
			var apiErr *common.APIError
			if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
				return core.PriceSeries{}, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("binance: %s", pair))
			}
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching klines: %w", err))
		}

		for _, k := range klines {
			p, err := toPoint(k)
			if err != nil {
				return core.PriceSeries{}, core.WrapError(core.ErrMalformedSeries, err)
			}
			points = append(points, p)
		}

		if len(klines) < pageSize {
			break
		}
		from = klines[len(klines)-1].CloseTime + 1
		if from >= to {
			break
		}
	}

	if len(points) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData, fmt.Errorf("no klines for symbol: %s", pair))
	}

	return core.NewPriceSeries(symbol, points)
}

// toPoint maps a daily kline to its UTC open day
func toPoint(k *binance.Kline) (core.PricePoint, error) {
	t := time.UnixMilli(k.OpenTime).UTC().Truncate(24 * time.Hour)
	c, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return core.PricePoint{}, fmt.Errorf("kline %s: close %q: %w", t.Format("2006-01-02"), k.Close, err)
	}
	return core.Observed(t, c), nil
}
