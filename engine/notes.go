package engine

import (
	"context"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/separation"
	"github.com/RyanBlaney/sonido-grabber/algorithms/tonal"
	"github.com/RyanBlaney/sonido-grabber/audio"
	"github.com/RyanBlaney/sonido-grabber/logging"
)

// DetectNotes downmixes buf and returns its pitched notes in start order.
// An empty buffer or one shorter than a frame yields an empty list.
func (e *Engine) DetectNotes(ctx context.Context, buf *audio.Buffer, progress common.ProgressFunc) ([]tonal.Note, error) {
	if err := validateBuffer(buf); err != nil {
		return nil, err
	}

	tracker := common.NewProgressTracker(progress)
	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DetectNotes",
		"label":    buf.Label,
		"frames":   buf.Frames(),
	})

	if buf.IsEmpty() {
		tracker.Report(1)
		return []tonal.Note{}, nil
	}

	pc := e.cfg.Pitch
	params := tonal.DefaultPitchDetectionParams(buf.SampleRate)
	params.WindowSize = pc.WindowSize
	params.HopSize = pc.HopSize
	params.MinFreq = pc.MinFreq
	params.MaxFreq = pc.MaxFreq
	params.MinConfidence = pc.MinConfidence
	params.SilenceThreshold = pc.SilenceThreshold
	params.MinNoteDuration = pc.MinNoteDuration

	detector, err := tonal.NewPitchDetector(params, e.cfg.PipelineOptions()...)
	if err != nil {
		return nil, newOperationError(opDetectNotes, buf.Label, separation.Original, err)
	}

	logger.Debug("Starting note detection")

	notes, err := detector.Detect(ctx, audio.Downmix(buf), tracker.Func())
	if err != nil {
		return nil, newOperationError(opDetectNotes, buf.Label, separation.Original, err)
	}

	tracker.Report(1)
	logger.Debug("Note detection complete", logging.Fields{"notes": len(notes)})

	return notes, nil
}
