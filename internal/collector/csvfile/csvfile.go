package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/goldencross/internal/collector"
	"github.com/newthinker/goldencross/internal/core"
)

const (
	symbolPlaceholder = "{symbol}"
	dateLayout        = "2006-01-02"
)

// CSVFile reads daily closes from local CSV files with a Date and a Close
// column. A blank close marks a day without an observation.
type CSVFile struct {
	path string
}

// New creates a new CSV file collector
func New() *CSVFile {
	return &CSVFile{}
}

func (c *CSVFile) Name() string {
	return "csv"
}

// Init sets the file path. "{symbol}" in the path is replaced by the symbol.
func (c *CSVFile) Init(cfg collector.Config) error {
	if cfg.Path == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("csv collector requires a path"))
	}
	c.path = cfg.Path
	return nil
}

func (c *CSVFile) filePath(symbol string) string {
	return strings.ReplaceAll(c.path, symbolPlaceholder, symbol)
}

// FetchSeries loads rows dated within [start, end]. A zero start or end
// leaves that side open.
func (c *CSVFile) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	path := c.filePath(symbol)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return core.PriceSeries{}, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no file for %s: %s", symbol, path))
	}
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer f.Close()

	points, err := readPoints(f, start, end)
	if err != nil {
		return core.PriceSeries{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(points) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData, fmt.Errorf("no rows for %s in range", symbol))
	}

	return core.NewPriceSeries(symbol, points)
}

func readPoints(r io.Reader, start, end time.Time) ([]core.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, core.WrapError(core.ErrMalformedSeries, fmt.Errorf("reading header: %w", err))
	}

	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, core.WrapError(core.ErrMalformedSeries, fmt.Errorf("header must contain Date and Close, got %v", header))
	}

	var points []core.PricePoint
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrMalformedSeries, fmt.Errorf("line %d: %w", line, err))
		}

		t, err := time.Parse(dateLayout, strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, core.WrapError(core.ErrMalformedSeries, fmt.Errorf("line %d: invalid date: %w", line, err))
		}
		if (!start.IsZero() && t.Before(start)) || (!end.IsZero() && t.After(end)) {
			continue
		}

		raw := strings.TrimSpace(record[closeCol])
		if raw == "" {
			points = append(points, core.Missing(t))
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, core.WrapError(core.ErrMalformedSeries, fmt.Errorf("line %d: invalid close %q", line, raw))
		}
		points = append(points, core.Observed(t, v))
	}

	return points, nil
}
