package filters

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
)

// SpectralGate attenuates bins whose magnitude falls under the noise floor.
//
// For bin i with threshold t = profile[i]*(1+threshold), a magnitude m < t
// is scaled by max(0, 1 - reduction*(1 - m/t)). Bins at or above t and bins
// with a zero threshold pass unchanged. The Nyquist bin is never gated.
type SpectralGate struct {
	profile   *NoiseProfile
	threshold float64
	reduction float64
}

// NewSpectralGate creates a gate. threshold is the fractional margin above
// the noise floor and reduction the maximum attenuation, both in [0, 1].
func NewSpectralGate(profile *NoiseProfile, threshold, reduction float64) (*SpectralGate, error) {
	if profile == nil {
		return nil, fmt.Errorf("noise profile is required")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("gate threshold must be non-negative: %v", threshold)
	}
	if reduction < 0 || reduction > 1 {
		return nil, fmt.Errorf("reduction amount must be in [0, 1]: %v", reduction)
	}

	return &SpectralGate{
		profile:   profile,
		threshold: threshold,
		reduction: reduction,
	}, nil
}

// Gain returns the gain for a bin of the given magnitude
func (g *SpectralGate) Gain(bin int, magnitude float64) float64 {
	if bin < 0 || bin >= len(g.profile.Magnitudes) {
		return 1
	}

	t := g.profile.Magnitudes[bin] * (1 + g.threshold)
	if t <= 0 || magnitude >= t {
		return 1
	}
	return max(0, 1-g.reduction*(1-magnitude/t))
}

// Edit gates one frame in place, mirroring every gain onto bin N-i.
// It satisfies spectral.SpectrumEditor.
func (g *SpectralGate) Edit(frame spectral.Frame) {
	n := min(len(frame.Spectrum)/2, len(g.profile.Magnitudes))
	for i := range n {
		if gain := g.Gain(i, cmplx.Abs(frame.Spectrum[i])); gain != 1 {
			spectral.ScaleBin(frame.Spectrum, i, gain)
		}
	}
}
