package engine

import (
	"context"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/filters"
	"github.com/RyanBlaney/sonido-grabber/algorithms/separation"
	"github.com/RyanBlaney/sonido-grabber/audio"
	"github.com/RyanBlaney/sonido-grabber/logging"
)

// SuppressNoise gates every channel of buf against a noise profile taken
// from its leading segment and returns the peak-normalized result.
func (e *Engine) SuppressNoise(ctx context.Context, buf *audio.Buffer, progress common.ProgressFunc) (*audio.Buffer, error) {
	if err := validateBuffer(buf); err != nil {
		return nil, err
	}

	nc := e.cfg.Noise
	if err := requireFrame(buf, nc.WindowSize); err != nil {
		return nil, err
	}

	fail := func(err error) error {
		return newOperationError(opSuppressNoise, buf.Label, separation.Original, err)
	}

	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "SuppressNoise",
		"label":    buf.Label,
		"channels": buf.Channels,
		"frames":   buf.Frames(),
	})

	mono := audio.Downmix(buf)
	segment := mono[:filters.NoiseSegmentLength(len(mono), buf.SampleRate, nc.ProfileSeconds)]

	profile, err := filters.EstimateNoiseProfile(ctx, segment, nc.WindowSize, e.cfg.PipelineOptions()...)
	if err != nil {
		return nil, fail(err)
	}
	if profile.Frames == 0 {
		logger.Warn("Noise segment shorter than one frame, gating disabled", logging.Fields{
			"segment_samples": len(segment),
			"window_size":     nc.WindowSize,
		})
	}

	gate, err := filters.NewSpectralGate(profile, nc.GateThreshold, nc.ReductionAmount)
	if err != nil {
		return nil, fail(err)
	}

	pipeline, err := e.pipeline(nc.WindowSize, nc.HopSize)
	if err != nil {
		return nil, fail(err)
	}

	logger.Debug("Starting noise suppression", logging.Fields{"profile_frames": profile.Frames})

	tracker := common.NewProgressTracker(progress)
	channels := audio.Deinterleave(buf)
	share := 1 / float64(len(channels))

	for ch, data := range channels {
		stage := tracker.Stage(float64(ch)*share, share)

		gated, err := pipeline.Process(ctx, data, gate.Edit, stage)
		if err != nil {
			return nil, fail(err)
		}
		channels[ch] = resynthesized(pipeline, gated, len(data))
		stage(1)
	}

	samples, err := audio.Interleave(channels)
	if err != nil {
		return nil, fail(err)
	}

	out := e.finish(buf, samples, "_denoised")
	tracker.Report(1)
	logger.Debug("Noise suppression complete")

	return out, nil
}
