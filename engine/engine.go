package engine

import (
	"fmt"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
	"github.com/RyanBlaney/sonido-grabber/audio"
	"github.com/RyanBlaney/sonido-grabber/engine/config"
	"github.com/RyanBlaney/sonido-grabber/logging"
	"gonum.org/v1/gonum/floats"
)

const (
	opDetectNotes   = "detect_notes"
	opSuppressNoise = "suppress_noise"
	opExtractStem   = "extract_stem"
	opSeparateStems = "separate_stems"
)

// Engine runs note detection, noise suppression and stem extraction over
// audio buffers. It holds only immutable configuration, so one Engine may
// serve concurrent calls; each call works on its own copies of the input.
type Engine struct {
	cfg    config.ProcessingConfig
	logger logging.Logger
}

// NewEngine validates cfg and creates an engine. A nil cfg selects
// config.DefaultProcessingConfig.
func NewEngine(cfg *config.ProcessingConfig) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultProcessingConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processing config: %w", err)
	}

	return &Engine{
		cfg:    *cfg,
		logger: logging.Component("engine"),
	}, nil
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() config.ProcessingConfig {
	return e.cfg
}

func validateBuffer(buf *audio.Buffer) error {
	if buf == nil {
		return ErrNilBuffer
	}
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBuffer, err)
	}
	return nil
}

func requireFrame(buf *audio.Buffer, size int) error {
	if buf.Frames() < size {
		return fmt.Errorf("%w: %d samples per channel, need %d", ErrBufferTooShort, buf.Frames(), size)
	}
	return nil
}

func (e *Engine) pipeline(size, hop int) (*spectral.FramePipeline, error) {
	return spectral.NewFramePipeline(size, hop, e.cfg.PipelineOptions()...)
}

// resynthesized undoes the overlap-add window gain of p and trims or pads
// the stream to length samples
func resynthesized(p *spectral.FramePipeline, stream []float64, length int) []float64 {
	out := audio.FitLength(stream, length)
	if gain := p.OverlapGain(); gain > 0 {
		floats.Scale(1/gain, out)
	}
	return out
}

// finish peak-normalizes samples and wraps them in a buffer shaped like src
func (e *Engine) finish(src *audio.Buffer, samples []float64, suffix string) *audio.Buffer {
	common.NormalizePeak(samples, e.cfg.PeakCeiling)
	return src.Derive(samples, suffix)
}
