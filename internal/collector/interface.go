package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/goldencross/internal/core"
)

// Config holds collector configuration
type Config struct {
	APIKey        string
	BaseURL       string            // Override the provider endpoint
	Path          string            // File path template for file-backed collectors
	Timeout       time.Duration     // Per-request timeout
	RatePerSecond float64           // Request throttle, 0 disables it
	Transport     http.RoundTripper // Optional, wraps outgoing HTTP requests
}

// Collector fetches the daily close series of one symbol. Implementations
// return a validated core.PriceSeries; gaps stay as missing closes.
type Collector interface {
	Name() string
	Init(cfg Config) error
	// FetchSeries returns the bars dated from start through end. Both
	// bounds are inclusive calendar days.
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error)
}
