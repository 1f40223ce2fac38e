package common

import (
	"gonum.org/v1/gonum/floats"
)

// DefaultPeakCeiling is the output ceiling applied after every amplitude-altering operation
const DefaultPeakCeiling = 0.95

// NormalizePeak scales samples in place so that the largest absolute value
// does not exceed ceiling. Signals already under the ceiling are left
// untouched; quiet material is never amplified. Returns the applied gain.
func NormalizePeak(samples []float64, ceiling float64) float64 {
	peak := MaxAbs(samples)
	if peak <= ceiling || peak == 0 {
		return 1.0
	}

	gain := ceiling / peak
	floats.Scale(gain, samples)
	return gain
}

// NormalizedPeak returns a peak-normalized copy of samples
func NormalizedPeak(samples []float64, ceiling float64) []float64 {
	out := make([]float64, len(samples))
	copy(out, samples)
	NormalizePeak(out, ceiling)
	return out
}
