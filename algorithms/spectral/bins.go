package spectral

import (
	"math"
	"math/cmplx"
)

// BinFrequency returns the centre frequency in Hz of bin k for an N-point transform
func BinFrequency(bin, sampleRate, size int) float64 {
	return float64(bin) * float64(sampleRate) / float64(size)
}

// FrequencyBin returns the bin nearest to freq for an N-point transform
func FrequencyBin(freq float64, sampleRate, size int) int {
	return int(math.Round(freq * float64(size) / float64(sampleRate)))
}

// MirrorBin returns the Hermitian mirror N-k of bin k, or -1 for the DC and
// Nyquist bins, which are their own mirrors.
func MirrorBin(bin, size int) int {
	if bin <= 0 || bin >= size/2 {
		return -1
	}
	return size - bin
}

// ScaleBin multiplies bin k and its mirror by gain, keeping the spectrum of a
// real signal conjugate-symmetric.
func ScaleBin(spectrum []complex128, bin int, gain float64) {
	g := complex(gain, 0)
	spectrum[bin] *= g
	if m := MirrorBin(bin, len(spectrum)); m >= 0 {
		spectrum[m] *= g
	}
}

// ZeroBin clears bin k and its mirror
func ZeroBin(spectrum []complex128, bin int) {
	spectrum[bin] = 0
	if m := MirrorBin(bin, len(spectrum)); m >= 0 {
		spectrum[m] = 0
	}
}

// Magnitudes writes |spectrum[k]| for k < len(dst) into dst and returns it.
// A nil dst allocates the non-redundant half, N/2 values.
func Magnitudes(spectrum []complex128, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(spectrum)/2)
	}
	for k := range dst {
		dst[k] = cmplx.Abs(spectrum[k])
	}
	return dst
}
