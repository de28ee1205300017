package core

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
)

// PricePoint is one trading day of the series. Close is None when the
// provider reported no observation for the day.
type PricePoint struct {
	Time  time.Time
	Close optional.Option[float64]
}

// Observed creates a PricePoint with a known close
func Observed(t time.Time, close float64) PricePoint {
	return PricePoint{Time: t, Close: optional.Some(close)}
}

// Missing creates a PricePoint without a close
func Missing(t time.Time) PricePoint {
	return PricePoint{Time: t, Close: optional.None[float64]()}
}

// PriceSeries is an immutable, validated, chronologically ordered close
// series for a single symbol.
type PriceSeries struct {
	symbol string
	points []PricePoint
}

// NewPriceSeries validates points and returns a series owning a private copy.
// Timestamps must be strictly increasing and every observed close must be a
// positive finite number.
func NewPriceSeries(symbol string, points []PricePoint) (PriceSeries, error) {
	for i, p := range points {
		if p.Time.IsZero() {
			return PriceSeries{}, WrapError(ErrMalformedSeries,
				fmt.Errorf("point %d: missing timestamp", i))
		}
		if i > 0 {
			prev := points[i-1].Time
			if p.Time.Equal(prev) {
				return PriceSeries{}, WrapError(ErrMalformedSeries,
					fmt.Errorf("point %d: duplicate timestamp %s", i, p.Time.Format(time.RFC3339)))
			}
			if p.Time.Before(prev) {
				return PriceSeries{}, WrapError(ErrMalformedSeries,
					fmt.Errorf("point %d: timestamp %s precedes %s", i,
						p.Time.Format(time.RFC3339), prev.Format(time.RFC3339)))
			}
		}
		if p.Close.IsSome() {
			c := p.Close.Unwrap()
			if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
				return PriceSeries{}, WrapError(ErrMalformedSeries,
					fmt.Errorf("point %d (%s): close must be positive, got %v", i,
						p.Time.Format(time.RFC3339), c))
			}
		}
	}

	owned := make([]PricePoint, len(points))
	copy(owned, points)
	return PriceSeries{symbol: symbol, points: owned}, nil
}

// Symbol returns the instrument the series belongs to
func (s PriceSeries) Symbol() string {
	return s.symbol
}

// Len returns the number of points
func (s PriceSeries) Len() int {
	return len(s.points)
}

// At returns the i-th point
func (s PriceSeries) At(i int) PricePoint {
	return s.points[i]
}

// Times returns the timestamps in order
func (s PriceSeries) Times() []time.Time {
	times := make([]time.Time, len(s.points))
	for i, p := range s.points {
		times[i] = p.Time
	}
	return times
}

// Closes returns the raw closes in order, None where missing
func (s PriceSeries) Closes() []optional.Option[float64] {
	closes := make([]optional.Option[float64], len(s.points))
	for i, p := range s.points {
		closes[i] = p.Close
	}
	return closes
}

// First returns the first timestamp, zero for an empty series
func (s PriceSeries) First() time.Time {
	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[0].Time
}

// Last returns the last timestamp, zero for an empty series
func (s PriceSeries) Last() time.Time {
	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[len(s.points)-1].Time
}
