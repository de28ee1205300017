package ma_crossover

import (
	"fmt"

	"github.com/newthinker/goldencross/internal/indicator"
	"github.com/newthinker/goldencross/internal/strategy"
)

const (
	DefaultShortWindow = 50
	DefaultLongWindow  = 200
)

// Cross classifies the relation of two moving averages across one step
type Cross int

const (
	CrossNone Cross = iota
	CrossGolden
	CrossDeath
)

func (c Cross) String() string {
	switch c {
	case CrossGolden:
		return "golden_cross"
	case CrossDeath:
		return "death_cross"
	default:
		return "none"
	}
}

// Detect compares the short and long averages at t-1 and t. The crossing
// timestamp itself counts as crossed, so equality at t fires.
func Detect(prevShort, prevLong, currShort, currLong float64) Cross {
	// Golden Cross: short rises to meet or exceed long
	if prevShort < prevLong && currShort >= currLong {
		return CrossGolden
	}
	// Death Cross: short falls to or below long
	if prevShort > prevLong && currShort <= currLong {
		return CrossDeath
	}
	return CrossNone
}

// MACrossover implements a moving average crossover strategy
type MACrossover struct {
	shortWindow int
	longWindow  int
}

// New creates a new MA Crossover strategy
func New(shortWindow, longWindow int) *MACrossover {
	return &MACrossover{
		shortWindow: shortWindow,
		longWindow:  longWindow,
	}
}

func (m *MACrossover) Name() string {
	return "ma_crossover"
}

func (m *MACrossover) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.shortWindow, m.longWindow)
}

func (m *MACrossover) Windows() (int, int) {
	return m.shortWindow, m.longWindow
}

// Evaluate maps a golden cross to an entry and a death cross to an exit.
// Rows with an undefined average never signal.
func (m *MACrossover) Evaluate(prev, curr indicator.Row) strategy.Signal {
	if !prev.Defined() || !curr.Defined() {
		return strategy.SignalNone
	}

	switch Detect(prev.ShortMA.Unwrap(), prev.LongMA.Unwrap(), curr.ShortMA.Unwrap(), curr.LongMA.Unwrap()) {
	case CrossGolden:
		return strategy.SignalEnter
	case CrossDeath:
		return strategy.SignalExit
	default:
		return strategy.SignalNone
	}
}
