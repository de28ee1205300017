package indicator

import (
	"testing"

	"github.com/moznion/go-optional"
)

func TestForwardFill(t *testing.T) {
	in := []optional.Option[float64]{
		none(),
		optional.Some(10.0),
		none(),
		none(),
		optional.Some(12.0),
		none(),
	}

	got := ForwardFill(in)

	if got[0].IsSome() {
		t.Error("leading gap should stay undefined")
	}
	want := []float64{10, 10, 10, 12, 12}
	for i, v := range want {
		if got[i+1].Unwrap() != v {
			t.Errorf("filled[%d] = %v, want %f", i+1, got[i+1], v)
		}
	}

	// Input untouched
	if in[2].IsSome() {
		t.Error("ForwardFill must not modify its input")
	}
}

func TestForwardFill_Empty(t *testing.T) {
	if got := ForwardFill(nil); len(got) != 0 {
		t.Errorf("expected empty output, got %d values", len(got))
	}
}
