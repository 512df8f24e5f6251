package decoder

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Window returns the intensities at quantiles lowQ and highQ of samples.
// When they coincide the full range is used.
func Window(samples []float64, lowQ, highQ float64) (lo, hi float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	lo = stat.Quantile(lowQ, stat.Empirical, sorted, nil)
	hi = stat.Quantile(highQ, stat.Empirical, sorted, nil)
	if hi <= lo {
		lo, hi = floats.Min(sorted), floats.Max(sorted)
	}
	return lo, hi
}

// ToUint8 maps lo..hi linearly onto 0..255, clamping outside values. A
// zero-width window maps everything to 0.
func ToUint8(samples []float64, lo, hi float64) []byte {
	out := make([]byte, len(samples))
	span := hi - lo
	if span <= 0 {
		return out
	}
	for i, s := range samples {
		v := (s - lo) / span * 255
		switch {
		case v <= 0:
			out[i] = 0
		case v >= 255:
			out[i] = 255
		default:
			out[i] = byte(v + 0.5)
		}
	}
	return out
}
