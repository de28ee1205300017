package indicator

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/newthinker/goldencross/internal/core"
)

// Set holds the indicator series derived from a PriceSeries, aligned 1:1
// with it by index. It is read-only after Compute.
type Set struct {
	Symbol         string
	ShortWindow    int
	LongWindow     int
	Times          []time.Time
	ShortMA        []optional.Option[float64]
	LongMA         []optional.Option[float64]
	ReferenceClose []optional.Option[float64]
}

// Row is the aligned view of a Set at one timestamp
type Row struct {
	Time           time.Time
	ShortMA        optional.Option[float64]
	LongMA         optional.Option[float64]
	ReferenceClose optional.Option[float64]
}

// Defined reports whether both moving averages are known
func (r Row) Defined() bool {
	return r.ShortMA.IsSome() && r.LongMA.IsSome()
}

// Compute derives the short and long moving averages and the forward-filled
// reference close. Series too short for a window yield None for that window
// rather than an error; a series with fewer than two points has no defined
// averages at all.
func Compute(series core.PriceSeries, shortWindow, longWindow int) Set {
	reference := ForwardFill(series.Closes())

	set := Set{
		Symbol:         series.Symbol(),
		ShortWindow:    shortWindow,
		LongWindow:     longWindow,
		Times:          series.Times(),
		ShortMA:        SMA(reference, shortWindow),
		LongMA:         SMA(reference, longWindow),
		ReferenceClose: reference,
	}
	if series.Len() < 2 {
		set.ShortMA = undefined(series.Len())
		set.LongMA = undefined(series.Len())
	}
	return set
}

func undefined(n int) []optional.Option[float64] {
	result := make([]optional.Option[float64], n)
	for i := range result {
		result[i] = optional.None[float64]()
	}
	return result
}

// Len returns the number of aligned rows
func (s Set) Len() int {
	return len(s.Times)
}

// At returns the aligned row at index i
func (s Set) At(i int) Row {
	return Row{
		Time:           s.Times[i],
		ShortMA:        s.ShortMA[i],
		LongMA:         s.LongMA[i],
		ReferenceClose: s.ReferenceClose[i],
	}
}

// Warm reports whether the long average is defined anywhere in the set
func (s Set) Warm() bool {
	for _, v := range s.LongMA {
		if v.IsSome() {
			return true
		}
	}
	return false
}
