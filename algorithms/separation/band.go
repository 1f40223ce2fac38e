package separation

import (
	"fmt"

	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
)

// Band is an inclusive frequency range in Hz
type Band struct {
	Min float64 `json:"min_hz"`
	Max float64 `json:"max_hz"`
}

var (
	VocalsBand = Band{Min: 80, Max: 8000}
	BassBand   = Band{Min: 20, Max: 250}
	OtherBand  = Band{Min: 250, Max: 15000}
)

// Contains reports whether freq lies in [Min, Max]
func (b Band) Contains(freq float64) bool {
	return freq >= b.Min && freq <= b.Max
}

// Validate checks the range is ordered and non-negative
func (b Band) Validate() error {
	if b.Min < 0 || b.Max < b.Min {
		return fmt.Errorf("invalid band [%g, %g] Hz", b.Min, b.Max)
	}
	return nil
}

// Suffix returns the label suffix for buffers filtered to this band
func (b Band) Suffix() string {
	return fmt.Sprintf("_%g-%gHz", b.Min, b.Max)
}

// BandFilter zeroes every bin outside a band
type BandFilter struct {
	band       Band
	sampleRate int
}

// NewBandFilter creates a filter for streams at sampleRate
func NewBandFilter(band Band, sampleRate int) (*BandFilter, error) {
	if err := band.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	return &BandFilter{band: band, sampleRate: sampleRate}, nil
}

// Band returns the pass band
func (f *BandFilter) Band() Band {
	return f.band
}

// Edit zeroes bins k in [0, N/2] whose frequency lies outside the band,
// together with their mirrors. It satisfies spectral.SpectrumEditor.
func (f *BandFilter) Edit(frame spectral.Frame) {
	n := len(frame.Spectrum)
	for k := 0; k <= n/2; k++ {
		if !f.band.Contains(spectral.BinFrequency(k, f.sampleRate, n)) {
			spectral.ZeroBin(frame.Spectrum, k)
		}
	}
}
