package separation

import (
	"context"
	"math"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/spectral"
	"gonum.org/v1/gonum/mat"
)

// MaxEnhancement caps the per-bin boost applied by PercussiveEnhancer
const MaxEnhancement = 2.0

// PercussiveEnhancer boosts bins whose magnitude changes sharply between
// neighbouring frames. For interior frame t and bin k < N/2 the bin and its
// mirror are scaled by min(2, 1 + |m[t]-m[t-1]| + |m[t]-m[t+1]|), with
// magnitudes taken from the spectrogram before any edit. The first and last
// frames are left unmodified.
type PercussiveEnhancer struct {
	progressInterval int
}

// NewPercussiveEnhancer creates an enhancer reporting progress every
// progressInterval frames
func NewPercussiveEnhancer(progressInterval int) *PercussiveEnhancer {
	if progressInterval <= 0 {
		progressInterval = spectral.DefaultProgressInterval
	}
	return &PercussiveEnhancer{progressInterval: progressInterval}
}

// MagnitudeMatrix returns |X[t][k]| for k < N/2 as a frames x bins matrix
func MagnitudeMatrix(frames []spectral.Frame) *mat.Dense {
	if len(frames) == 0 {
		return nil
	}

	bins := len(frames[0].Spectrum) / 2
	m := mat.NewDense(len(frames), bins, nil)
	for t, frame := range frames {
		spectral.Magnitudes(frame.Spectrum, m.RawRowView(t))
	}
	return m
}

// Enhance edits frames in place
func (e *PercussiveEnhancer) Enhance(ctx context.Context, frames []spectral.Frame, progress common.ProgressFunc) error {
	if len(frames) < 3 {
		progress.Report(1)
		return nil
	}

	mags := MagnitudeMatrix(frames)
	_, bins := mags.Dims()
	last := len(frames) - 1

	for t := 1; t < last; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		prev, curr, next := mags.RawRowView(t-1), mags.RawRowView(t), mags.RawRowView(t+1)
		spectrum := frames[t].Spectrum
		for k := range bins {
			variation := math.Abs(curr[k]-prev[k]) + math.Abs(curr[k]-next[k])
			spectral.ScaleBin(spectrum, k, min(MaxEnhancement, 1+variation))
		}

		if t%e.progressInterval == 0 {
			progress.Report(float64(t) / float64(last))
		}
	}

	progress.Report(1)
	return nil
}
