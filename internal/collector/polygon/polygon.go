package polygon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"golang.org/x/time/rate"

	"github.com/newthinker/goldencross/internal/collector"
	"github.com/newthinker/goldencross/internal/core"
)

// Polygon implements a collector backed by polygon.io daily aggregates
type Polygon struct {
	client  *polygon.Client
	limiter *rate.Limiter
}

// New creates an uninitialized Polygon collector; Init supplies the API key
func New() *Polygon {
	return &Polygon{
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func (p *Polygon) Name() string {
	return "polygon"
}

func (p *Polygon) Init(cfg collector.Config) error {
	if cfg.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("polygon api_key required"))
	}
	if cfg.Transport != nil {
		p.client = polygon.NewWithClient(cfg.APIKey, &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout})
	} else {
		p.client = polygon.New(cfg.APIKey)
	}
	if cfg.RatePerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return nil
}

// FetchSeries lists one-day aggregates for symbol between start and end
func (p *Polygon) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	if p.client == nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("polygon collector not initialized"))
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return core.PriceSeries{}, err
	}

	params := models.ListAggsParams{
		Ticker:     strings.ToUpper(symbol),
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}

	var points []core.PricePoint
	iter := p.client.ListAggs(ctx, &params)
	for iter.Next() {
		points = append(points, toPoint(iter.Item()))
	}
	if err := iter.Err(); err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("listing aggregates: %w", err))
	}

	if len(points) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData, fmt.Errorf("no aggregates for symbol: %s", symbol))
	}

	return core.NewPriceSeries(symbol, points)
}

// toPoint maps a daily aggregate to its UTC calendar day
func toPoint(agg models.Agg) core.PricePoint {
	t := time.Time(agg.Timestamp).UTC().Truncate(24 * time.Hour)
	return core.Observed(t, agg.Close)
}
