package strategy

import "github.com/newthinker/goldencross/internal/indicator"

// Signal is the outcome of evaluating a rule on two consecutive rows
type Signal int

const (
	SignalNone  Signal = iota
	SignalEnter        // open a long position
	SignalExit         // close the open position
)

func (s Signal) String() string {
	switch s {
	case SignalEnter:
		return "enter"
	case SignalExit:
		return "exit"
	default:
		return "none"
	}
}

// Rule decides entries and exits from indicator rows. Implementations must be
// pure: the same pair of rows always yields the same signal.
type Rule interface {
	Name() string
	Description() string
	Windows() (short, long int)
	Evaluate(prev, curr indicator.Row) Signal
}
