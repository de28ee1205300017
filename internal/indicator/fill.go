package indicator

import "github.com/moznion/go-optional"

// ForwardFill replaces each missing value with the most recent known one.
// Values before the first observation stay None.
func ForwardFill(values []optional.Option[float64]) []optional.Option[float64] {
	result := make([]optional.Option[float64], len(values))
	last := optional.None[float64]()
	for i, v := range values {
		if v.IsSome() {
			last = v
		}
		result[i] = last
	}
	return result
}
