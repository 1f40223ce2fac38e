package common

import (
	"sync"
)

// ProgressFunc receives completion fractions in [0, 1]
type ProgressFunc func(fraction float64)

// ProgressTracker forwards progress to a sink, clamping values to [0, 1] and
// dropping any value lower than one already reported. It is safe for
// concurrent use and tolerates a nil sink.
type ProgressTracker struct {
	mu       sync.Mutex
	sink     ProgressFunc
	last     float64
	reported bool
}

// NewProgressTracker wraps sink
func NewProgressTracker(sink ProgressFunc) *ProgressTracker {
	return &ProgressTracker{sink: sink}
}

// Report forwards fraction if it does not move progress backwards
func (p *ProgressTracker) Report(fraction float64) {
	if p == nil || p.sink == nil {
		return
	}

	fraction = Clamp(fraction, 0, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reported && fraction < p.last {
		return
	}
	p.last = fraction
	p.reported = true
	p.sink(fraction)
}

// Func returns Report as a ProgressFunc
func (p *ProgressTracker) Func() ProgressFunc {
	return p.Report
}

// Stage maps a stage-local [0, 1] range onto [start, start+span] of the tracker
func (p *ProgressTracker) Stage(start, span float64) ProgressFunc {
	return func(fraction float64) {
		p.Report(start + span*Clamp(fraction, 0, 1))
	}
}

// Split returns n sinks whose mean is reported. Used when n independent
// tasks run concurrently and share one progress stream.
func (p *ProgressTracker) Split(n int) []ProgressFunc {
	if n <= 0 {
		return nil
	}

	var mu sync.Mutex
	parts := make([]float64, n)
	sinks := make([]ProgressFunc, n)

	for i := range n {
		sinks[i] = func(fraction float64) {
			mu.Lock()
			if fraction > parts[i] {
				parts[i] = Clamp(fraction, 0, 1)
			}
			sum := 0.0
			for _, v := range parts {
				sum += v
			}
			mu.Unlock()

			p.Report(sum / float64(n))
		}
	}

	return sinks
}

// Report calls fn if it is non-nil
func (fn ProgressFunc) Report(fraction float64) {
	if fn != nil {
		fn(fraction)
	}
}
