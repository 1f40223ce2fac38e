package spectral

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/logging"
)

// Spectrogram computes every frame of signal up front and returns them in
// order, each with its own spectrum. Frames are independent, so they are
// transformed by a pool of workers that each write only their own slots.
func (p *FramePipeline) Spectrogram(ctx context.Context, signal []float64, progress common.ProgressFunc) ([]Frame, error) {
	numFrames := p.FrameCount(len(signal))
	frames := make([]Frame, numFrames)
	if numFrames == 0 {
		return frames, nil
	}

	numWorkers := p.workers
	if numWorkers == 0 {
		numWorkers = getOptimalWorkerCount(numFrames)
	}
	numWorkers = min(numWorkers, numFrames)

	logger := logging.WithFields(logging.Fields{
		"component": "spectrogram",
		"frames":    numFrames,
		"workers":   numWorkers,
		"size":      p.size,
	})
	logger.Debug("Computing spectrogram")

	tracker := common.NewProgressTracker(progress)
	var done atomic.Int64

	jobs := make(chan int, numFrames)
	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// per-worker transform and frame buffer
			f := p.newFFT()
			frameBuffer := make([]float64, p.size)

			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}

				offset := idx * p.hop
				spectrum := make([]complex128, p.size)
				p.analyze(f, frameBuffer, spectrum, signal[offset:offset+p.size])
				frames[idx] = Frame{Index: idx, Offset: offset, Spectrum: spectrum}

				if n := int(done.Add(1)); n%p.progressInterval == 0 {
					tracker.Report(float64(n) / float64(numFrames))
				}
			}
		}()
	}

	for idx := range numFrames {
		jobs <- idx
	}
	close(jobs)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// getOptimalWorkerCount determines the number of workers based on workload
func getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
