package strategy

import "testing"

func TestSignal_String(t *testing.T) {
	tests := []struct {
		signal Signal
		want   string
	}{
		{SignalNone, "none"},
		{SignalEnter, "enter"},
		{SignalExit, "exit"},
		{Signal(42), "none"},
	}

	for _, tt := range tests {
		if got := tt.signal.String(); got != tt.want {
			t.Errorf("Signal(%d).String() = %s, want %s", tt.signal, got, tt.want)
		}
	}
}
