package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave starting at phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Mix sums signals sample by sample. The result has the length of the longest input.
func Mix(signals ...[]float64) []float64 {
	n := 0
	for _, s := range signals {
		n = max(n, len(s))
	}
	out := make([]float64, n)
	for _, s := range signals {
		for i, v := range s {
			out[i] += v
		}
	}
	return out
}

// Interleave builds an interleaved multichannel stream from equal-length channels.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float64, n*len(channels))
	for i := range n {
		for ch, data := range channels {
			out[i*len(channels)+ch] = data[i]
		}
	}
	return out
}

// ToneEnergy returns the magnitude of the DFT of signal at freqHz, normalized
// by length. It is a single-bin Goertzel-style probe for energy comparisons.
func ToneEnergy(signal []float64, freqHz, sampleRate float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var re, im float64
	step := 2 * math.Pi * freqHz / sampleRate
	for i, v := range signal {
		re += v * math.Cos(step*float64(i))
		im -= v * math.Sin(step*float64(i))
	}
	return math.Hypot(re, im) / float64(len(signal))
}
