package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/separation"
	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
)

// ProcessingConfig holds every tunable of the engine
type ProcessingConfig struct {
	Pitch      PitchConfig      `json:"pitch"`
	Noise      NoiseConfig      `json:"noise"`
	Separation SeparationConfig `json:"separation"`

	PeakCeiling      float64 `json:"peak_ceiling"`      // output peak limit after processing
	Backend          string  `json:"backend"`           // "radix2", "go-dsp", "gonum"
	ProgressInterval int     `json:"progress_interval"` // frames between progress reports
	Workers          int     `json:"workers"`           // spectrogram workers, 0 = auto
}

// PitchConfig configures note detection
type PitchConfig struct {
	WindowSize       int     `json:"window_size"`
	HopSize          int     `json:"hop_size"`
	MinConfidence    float64 `json:"min_confidence"`
	MinFreq          float64 `json:"min_freq"`
	MaxFreq          float64 `json:"max_freq"`
	MinNoteDuration  float64 `json:"min_note_duration"` // seconds
	SilenceThreshold float64 `json:"silence_threshold"` // peak magnitude
}

// NoiseConfig configures spectral gating
type NoiseConfig struct {
	WindowSize      int     `json:"window_size"`
	HopSize         int     `json:"hop_size"`
	GateThreshold   float64 `json:"gate_threshold"`   // margin above the noise floor
	ReductionAmount float64 `json:"reduction_amount"` // 0-1
	ProfileSeconds  float64 `json:"profile_seconds"`  // leading noise-only segment
}

// SeparationConfig configures stem extraction
type SeparationConfig struct {
	WindowSize int             `json:"window_size"`
	HopSize    int             `json:"hop_size"`
	Vocals     separation.Band `json:"vocals"`
	Bass       separation.Band `json:"bass"`
	Other      separation.Band `json:"other"`
}

// DefaultProcessingConfig returns the default engine configuration
func DefaultProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{
		Pitch:            DefaultPitchConfig(),
		Noise:            DefaultNoiseConfig(),
		Separation:       DefaultSeparationConfig(),
		PeakCeiling:      common.DefaultPeakCeiling,
		Backend:          string(spectral.BackendRadix2),
		ProgressInterval: spectral.DefaultProgressInterval,
		Workers:          0,
	}
}

// DefaultPitchConfig covers C2 to C7
func DefaultPitchConfig() PitchConfig {
	return PitchConfig{
		WindowSize:       2048,
		HopSize:          512,
		MinConfidence:    0.3,
		MinFreq:          65,
		MaxFreq:          2100,
		MinNoteDuration:  0.05,
		SilenceThreshold: 0.01,
	}
}

func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		WindowSize:      2048,
		HopSize:         512,
		GateThreshold:   0.02,
		ReductionAmount: 0.8,
		ProfileSeconds:  0.5,
	}
}

func DefaultSeparationConfig() SeparationConfig {
	return SeparationConfig{
		WindowSize: 4096,
		HopSize:    1024,
		Vocals:     separation.VocalsBand,
		Bass:       separation.BassBand,
		Other:      separation.OtherBand,
	}
}

// Band returns the configured band for a band-filtered stem
func (c SeparationConfig) Band(stem separation.StemType) (separation.Band, bool) {
	switch stem {
	case separation.Vocals:
		return c.Vocals, true
	case separation.Bass:
		return c.Bass, true
	case separation.Other:
		return c.Other, true
	default:
		return separation.Band{}, false
	}
}

// Validate reports every invalid field, joined
func (c *ProcessingConfig) Validate() error {
	var errs []error

	errs = append(errs, validateFraming("pitch", c.Pitch.WindowSize, c.Pitch.HopSize))
	errs = append(errs, validateFraming("noise", c.Noise.WindowSize, c.Noise.HopSize))
	errs = append(errs, validateFraming("separation", c.Separation.WindowSize, c.Separation.HopSize))

	if c.Pitch.MinConfidence < 0 || c.Pitch.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("pitch: min confidence must be in [0, 1]: %v", c.Pitch.MinConfidence))
	}
	if c.Pitch.MinFreq <= 0 || c.Pitch.MaxFreq < c.Pitch.MinFreq {
		errs = append(errs, fmt.Errorf("pitch: invalid frequency range [%v, %v]", c.Pitch.MinFreq, c.Pitch.MaxFreq))
	}
	if c.Pitch.MinNoteDuration < 0 {
		errs = append(errs, fmt.Errorf("pitch: min note duration must be non-negative: %v", c.Pitch.MinNoteDuration))
	}

	if c.Noise.GateThreshold < 0 {
		errs = append(errs, fmt.Errorf("noise: gate threshold must be non-negative: %v", c.Noise.GateThreshold))
	}
	if c.Noise.ReductionAmount < 0 || c.Noise.ReductionAmount > 1 {
		errs = append(errs, fmt.Errorf("noise: reduction amount must be in [0, 1]: %v", c.Noise.ReductionAmount))
	}
	if c.Noise.ProfileSeconds <= 0 {
		errs = append(errs, fmt.Errorf("noise: profile duration must be positive: %v", c.Noise.ProfileSeconds))
	}

	for _, stem := range []separation.StemType{separation.Vocals, separation.Bass, separation.Other} {
		band, _ := c.Separation.Band(stem)
		if err := band.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("separation %s: %w", stem, err))
		}
	}

	if c.PeakCeiling <= 0 || c.PeakCeiling > 1 {
		errs = append(errs, fmt.Errorf("peak ceiling must be in (0, 1]: %v", c.PeakCeiling))
	}
	if _, err := spectral.ParseBackend(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.ProgressInterval <= 0 {
		errs = append(errs, fmt.Errorf("progress interval must be positive: %d", c.ProgressInterval))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be non-negative: %d", c.Workers))
	}

	return errors.Join(errs...)
}

func validateFraming(name string, size, hop int) error {
	if !common.IsPowerOfTwo(size) {
		return fmt.Errorf("%s: window size must be a power of two: %d", name, size)
	}
	if hop <= 0 || hop >= size {
		return fmt.Errorf("%s: hop size must be in [1, %d): %d", name, size, hop)
	}
	return nil
}

// PipelineOptions returns the frame pipeline options shared by every component
func (c *ProcessingConfig) PipelineOptions() []spectral.PipelineOption {
	return []spectral.PipelineOption{
		spectral.WithBackend(spectral.Backend(c.Backend)),
		spectral.WithProgressInterval(c.ProgressInterval),
		spectral.WithWorkers(c.Workers),
	}
}
