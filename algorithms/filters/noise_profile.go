package filters

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
	"gonum.org/v1/gonum/floats"
)

// NoiseProfile is the mean per-bin magnitude of a noise-only segment
type NoiseProfile struct {
	Magnitudes []float64 `json:"magnitudes"` // len = N/2, bins [0, N/2)
	Frames     int       `json:"frames"`     // frames averaged; zero means an all-zero profile
}

// Size returns the transform size the profile was measured with
func (np *NoiseProfile) Size() int {
	return len(np.Magnitudes) * 2
}

// EstimateNoiseProfile averages the magnitude spectra of segment using
// 50% overlapping frames of size N. A segment shorter than one frame gives
// an all-zero profile with Frames == 0.
func EstimateNoiseProfile(ctx context.Context, segment []float64, size int, opts ...spectral.PipelineOption) (*NoiseProfile, error) {
	pipeline, err := spectral.NewFramePipeline(size, size/2, opts...)
	if err != nil {
		return nil, fmt.Errorf("noise profile pipeline: %w", err)
	}

	profile := &NoiseProfile{Magnitudes: make([]float64, size/2)}
	mags := make([]float64, size/2)

	err = pipeline.Analyze(ctx, segment, func(frame spectral.Frame) error {
		floats.Add(profile.Magnitudes, spectral.Magnitudes(frame.Spectrum, mags))
		profile.Frames++
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	if profile.Frames > 0 {
		floats.Scale(1/float64(profile.Frames), profile.Magnitudes)
	}

	return profile, nil
}

// NoiseSegmentLength returns the number of leading samples used for
// profiling: min(seconds*sampleRate, available).
func NoiseSegmentLength(available, sampleRate int, seconds float64) int {
	return max(0, min(available, int(seconds*float64(sampleRate))))
}
