package tonal

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
	"github.com/RyanBlaney/sonido-grabber/logging"
)

// PitchStatus classifies a frame's pitch estimate
type PitchStatus int

const (
	// PitchUnvoiced means the spectral peak was below the silence threshold
	PitchUnvoiced PitchStatus = iota
	// PitchOutOfRange means the peak frequency was outside [MinFreq, MaxFreq]
	PitchOutOfRange
	// PitchLowConfidence means the peak was not prominent enough
	PitchLowConfidence
	// PitchAccepted frames feed note segmentation
	PitchAccepted
)

func (s PitchStatus) String() string {
	switch s {
	case PitchUnvoiced:
		return "unvoiced"
	case PitchOutOfRange:
		return "out_of_range"
	case PitchLowConfidence:
		return "low_confidence"
	case PitchAccepted:
		return "accepted"
	default:
		return fmt.Sprintf("PitchStatus(%d)", int(s))
	}
}

// PitchEstimate is the dominant-peak analysis of one frame
type PitchEstimate struct {
	Status     PitchStatus `json:"status"`
	Bin        int         `json:"bin"`
	Frequency  float64     `json:"frequency"`  // Hz, 0 when unvoiced
	Magnitude  float64     `json:"magnitude"`  // peak bin magnitude
	Confidence float64     `json:"confidence"` // 0-1, peak prominence over its neighbourhood
	MIDINote   int         `json:"midi_note"`
}

// Accepted reports whether the frame carries a usable pitch
func (e PitchEstimate) Accepted() bool {
	return e.Status == PitchAccepted
}

// PitchDetectionParams contains parameters for pitch detection
type PitchDetectionParams struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"` // transform size N, power of two
	HopSize    int `json:"hop_size"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // C2
	MaxFreq float64 `json:"max_freq"` // C7

	// Quality thresholds
	MinConfidence    float64 `json:"min_confidence"`
	SilenceThreshold float64 `json:"silence_threshold"` // peak magnitude below this is unvoiced
	NeighborhoodBins int     `json:"neighborhood_bins"` // half-width of the confidence neighbourhood

	MinNoteDuration float64 `json:"min_note_duration"` // seconds
}

// DefaultPitchDetectionParams returns the detector defaults for sampleRate
func DefaultPitchDetectionParams(sampleRate int) PitchDetectionParams {
	return PitchDetectionParams{
		SampleRate:       sampleRate,
		WindowSize:       2048,
		HopSize:          512,
		MinFreq:          65,
		MaxFreq:          2100,
		MinConfidence:    0.3,
		SilenceThreshold: 0.01,
		NeighborhoodBins: 5,
		MinNoteDuration:  0.05,
	}
}

// PitchDetector estimates one dominant pitch per frame by peak picking
// over the magnitude spectrum and turns accepted frames into notes.
//
// DetectFrame reuses an internal magnitude buffer, so a PitchDetector must
// not be shared between goroutines.
type PitchDetector struct {
	params   PitchDetectionParams
	pipeline *spectral.FramePipeline
	mags     []float64
	logger   logging.Logger
}

// NewPitchDetector creates a detector. Pipeline options select the
// transform backend and progress cadence.
func NewPitchDetector(params PitchDetectionParams, opts ...spectral.PipelineOption) (*PitchDetector, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", params.SampleRate)
	}
	if params.MinFreq > params.MaxFreq {
		return nil, fmt.Errorf("min frequency %.1f above max frequency %.1f", params.MinFreq, params.MaxFreq)
	}
	if params.NeighborhoodBins <= 0 {
		params.NeighborhoodBins = 5
	}

	pipeline, err := spectral.NewFramePipeline(params.WindowSize, params.HopSize, opts...)
	if err != nil {
		return nil, fmt.Errorf("pitch pipeline: %w", err)
	}

	return &PitchDetector{
		params:   params,
		pipeline: pipeline,
		mags:     make([]float64, params.WindowSize/2),
		logger: logging.WithFields(logging.Fields{
			"component": "pitch_detector",
		}),
	}, nil
}

// Params returns the detector configuration
func (pd *PitchDetector) Params() PitchDetectionParams {
	return pd.params
}

// DetectFrame analyzes one N-point spectrum
func (pd *PitchDetector) DetectFrame(spectrum []complex128) PitchEstimate {
	half := len(spectrum) / 2
	mags := pd.mags
	if len(mags) != half {
		mags = make([]float64, half)
	}
	spectral.Magnitudes(spectrum, mags)

	// DC is skipped
	peak, peakMag := 0, 0.0
	for k := 1; k < half; k++ {
		if mags[k] > peakMag {
			peak, peakMag = k, mags[k]
		}
	}

	est := PitchEstimate{Bin: peak, Magnitude: peakMag}
	if peak == 0 || peakMag < pd.params.SilenceThreshold {
		est.Status = PitchUnvoiced
		return est
	}

	est.Frequency = spectral.BinFrequency(peak, pd.params.SampleRate, len(spectrum))
	est.MIDINote = FrequencyToMIDI(est.Frequency)
	if est.Frequency < pd.params.MinFreq || est.Frequency > pd.params.MaxFreq {
		est.Status = PitchOutOfRange
		return est
	}

	est.Confidence = peakConfidence(mags, peak, pd.params.NeighborhoodBins)
	if est.Confidence < pd.params.MinConfidence {
		est.Status = PitchLowConfidence
		return est
	}

	est.Status = PitchAccepted
	return est
}

// peakConfidence returns min(1, peak/(3*avg)) where avg is the mean
// magnitude over bins peak-width..peak+width, clamped to [1, len(mags)).
func peakConfidence(mags []float64, peak, width int) float64 {
	lo := max(1, peak-width)
	hi := min(len(mags), peak+width+1)
	if hi <= lo {
		return 0
	}

	avg := common.Mean(mags[lo:hi])
	if avg <= 0 {
		return 0
	}
	return min(1, mags[peak]/(3*avg))
}

// Detect frames a mono stream, estimates pitch per frame and segments the
// accepted frames into notes ordered by start time. Streams shorter than
// one frame yield no notes.
func (pd *PitchDetector) Detect(ctx context.Context, mono []float64, progress common.ProgressFunc) ([]Note, error) {
	seg := NewNoteSegmenter(pd.params.SampleRate, pd.params.HopSize, pd.params.MinNoteDuration)

	counts := make(map[PitchStatus]int, 4)
	err := pd.pipeline.Analyze(ctx, mono, func(frame spectral.Frame) error {
		est := pd.DetectFrame(frame.Spectrum)
		counts[est.Status]++
		seg.Push(frame.Offset, est)
		return nil
	}, progress)
	if err != nil {
		return nil, err
	}

	notes := seg.Notes()

	pd.logger.Debug("Pitch detection complete", logging.Fields{
		"frames":         pd.pipeline.FrameCount(len(mono)),
		"accepted":       counts[PitchAccepted],
		"unvoiced":       counts[PitchUnvoiced],
		"out_of_range":   counts[PitchOutOfRange],
		"low_confidence": counts[PitchLowConfidence],
		"notes":          len(notes),
	})

	return notes, nil
}
