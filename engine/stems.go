package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/separation"
	"github.com/RyanBlaney/sonido-grabber/audio"
	"github.com/RyanBlaney/sonido-grabber/logging"
)

// ExtractStem returns one heuristic stem of buf. Band stems keep only the
// configured frequency range; Drums boosts bins with strong frame-to-frame
// variation; Original returns a copy of buf. The mono result is copied to
// every channel and peak-normalized.
func (e *Engine) ExtractStem(ctx context.Context, buf *audio.Buffer, stem separation.StemType, progress common.ProgressFunc) (*audio.Buffer, error) {
	if !stem.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStem, stem)
	}
	if err := validateBuffer(buf); err != nil {
		return nil, err
	}

	tracker := common.NewProgressTracker(progress)
	if stem == separation.Original {
		tracker.Report(1)
		return buf.Clone(), nil
	}

	if err := requireFrame(buf, e.cfg.Separation.WindowSize); err != nil {
		return nil, err
	}

	out, err := e.extract(ctx, buf, audio.Downmix(buf), stem, tracker)
	if err != nil {
		return nil, newOperationError(opExtractStem, buf.Label, stem, err)
	}

	tracker.Report(1)
	return out, nil
}

func (e *Engine) extract(ctx context.Context, buf *audio.Buffer, mono []float64, stem separation.StemType, tracker *common.ProgressTracker) (*audio.Buffer, error) {
	sc := e.cfg.Separation
	pipeline, err := e.pipeline(sc.WindowSize, sc.HopSize)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "ExtractStem",
		"label":    buf.Label,
		"stem":     stem.String(),
	})
	logger.Debug("Starting stem extraction")

	var (
		stream []float64
		suffix string
	)

	switch stem {
	case separation.Drums:
		frames, err := pipeline.Spectrogram(ctx, mono, tracker.Stage(0, 0.5))
		if err != nil {
			return nil, err
		}

		enhancer := separation.NewPercussiveEnhancer(e.cfg.ProgressInterval)
		if err := enhancer.Enhance(ctx, frames, tracker.Stage(0.5, 0.5)); err != nil {
			return nil, err
		}

		stream = pipeline.OverlapAdd(frames)
		suffix = "_drums"

	default:
		band, ok := sc.Band(stem)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownStem, stem)
		}

		filter, err := separation.NewBandFilter(band, buf.SampleRate)
		if err != nil {
			return nil, err
		}

		stream, err = pipeline.Process(ctx, mono, filter.Edit, tracker.Func())
		if err != nil {
			return nil, err
		}
		suffix = band.Suffix()
	}

	samples := audio.Distribute(resynthesized(pipeline, stream, len(mono)), buf.Channels)
	out := e.finish(buf, samples, suffix)

	logger.Debug("Stem extraction complete", logging.Fields{"samples": len(samples)})
	return out, nil
}

// SeparateStems extracts vocals, bass, drums and other concurrently. The
// four extractions share one progress stream, reported as their mean. The
// first failure cancels the rest.
func (e *Engine) SeparateStems(ctx context.Context, buf *audio.Buffer, progress common.ProgressFunc) (*separation.Stems, error) {
	if err := validateBuffer(buf); err != nil {
		return nil, err
	}
	if err := requireFrame(buf, e.cfg.Separation.WindowSize); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := common.NewProgressTracker(progress)
	sinks := tracker.Split(len(separation.SeparatedStems))
	mono := audio.Downmix(buf)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		stems    separation.Stems
		firstErr error
	)

	for i, stem := range separation.SeparatedStems {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// each stem reports through its own tracker so its share stays monotonic
			part := common.NewProgressTracker(sinks[i])
			out, err := e.extract(ctx, buf, mono, stem, part)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = newOperationError(opSeparateStems, buf.Label, stem, err)
					cancel()
				}
				return
			}
			part.Report(1)
			_ = stems.Set(stem, out)
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	tracker.Report(1)
	return &stems, nil
}
