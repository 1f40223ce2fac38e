package spectral

import (
	"context"
	"fmt"
	"iter"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/windowing"
	"gonum.org/v1/gonum/floats"
)

// DefaultProgressInterval is the number of frames between progress reports
const DefaultProgressInterval = 10

// Frame is one windowed, transformed slice of a mono stream
type Frame struct {
	Index    int          // position in the frame sequence
	Offset   int          // first sample of the frame in the source stream
	Spectrum []complex128 // full N-point spectrum, bins (N/2, N) mirror [1, N/2)
}

// SpectrumEditor modifies a frame's spectrum in place before resynthesis.
// Edits must keep the spectrum conjugate-symmetric (see ScaleBin, ZeroBin).
type SpectrumEditor func(frame Frame)

// FramePipeline splits a mono stream into overlapping Hann-windowed frames,
// transforms them, and rebuilds a stream from (possibly edited) spectra by
// overlap-add. It holds only immutable configuration and may be shared;
// every call allocates its own transform and scratch buffers.
type FramePipeline struct {
	size             int
	hop              int
	backend          Backend
	window           windowing.Window
	progressInterval int
	workers          int
}

// PipelineOption configures a FramePipeline
type PipelineOption func(*FramePipeline)

// WithBackend selects the transform implementation
func WithBackend(backend Backend) PipelineOption {
	return func(p *FramePipeline) {
		p.backend = backend
	}
}

// WithProgressInterval sets how many frames pass between progress reports
func WithProgressInterval(frames int) PipelineOption {
	return func(p *FramePipeline) {
		if frames > 0 {
			p.progressInterval = frames
		}
	}
}

// WithWorkers fixes the worker count used by Spectrogram. Zero picks one from the CPU count.
func WithWorkers(workers int) PipelineOption {
	return func(p *FramePipeline) {
		if workers >= 0 {
			p.workers = workers
		}
	}
}

// NewFramePipeline creates a pipeline for transform size N and hop H.
// N must be a power of two and 0 < H < N.
func NewFramePipeline(size, hop int, opts ...PipelineOption) (*FramePipeline, error) {
	if !common.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("transform size must be a positive power of two: %d", size)
	}
	if hop <= 0 || hop >= size {
		return nil, fmt.Errorf("hop size must be in [1, %d): %d", size, hop)
	}

	p := &FramePipeline{
		size:             size,
		hop:              hop,
		backend:          BackendRadix2,
		window:           windowing.NewHann(size, true),
		progressInterval: DefaultProgressInterval,
	}

	for _, opt := range opts {
		opt(p)
	}

	if _, err := ParseBackend(string(p.backend)); err != nil {
		return nil, err
	}

	return p, nil
}

// Size returns the transform size N
func (p *FramePipeline) Size() int { return p.size }

// Hop returns the hop size H
func (p *FramePipeline) Hop() int { return p.hop }

// Backend returns the transform backend
func (p *FramePipeline) Backend() Backend { return p.backend }

// FrameCount returns how many frames fit in a stream of length samples
func (p *FramePipeline) FrameCount(length int) int {
	if length < p.size {
		return 0
	}
	return (length-p.size)/p.hop + 1
}

// OutputLength returns the overlap-add output length, lastOffset + N, or 0 without frames
func (p *FramePipeline) OutputLength(length int) int {
	count := p.FrameCount(length)
	if count == 0 {
		return 0
	}
	return (count-1)*p.hop + p.size
}

func (p *FramePipeline) newFFT() *FFT {
	// size and backend were validated by NewFramePipeline
	f, err := NewFFT(p.size, p.backend)
	if err != nil {
		panic(fmt.Sprintf("spectral: %v", err))
	}
	return f
}

// analyze windows src into frame and transforms it into spectrum
func (p *FramePipeline) analyze(f *FFT, frame []float64, spectrum []complex128, src []float64) {
	copy(frame, src)
	// lengths match by construction
	_ = p.window.ApplyInPlace(frame)
	f.ComputeInto(spectrum, frame)
}

// Frames yields the frames of signal at offsets 0, H, 2H, ... while
// offset+N <= len(signal). The sequence can be ranged over any number of
// times. The yielded Spectrum is reused between iterations; copy it to keep it.
func (p *FramePipeline) Frames(signal []float64) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		count := p.FrameCount(len(signal))
		if count == 0 {
			return
		}

		f := p.newFFT()
		frame := make([]float64, p.size)
		spectrum := make([]complex128, p.size)

		for i := range count {
			offset := i * p.hop
			p.analyze(f, frame, spectrum, signal[offset:offset+p.size])
			if !yield(Frame{Index: i, Offset: offset, Spectrum: spectrum}) {
				return
			}
		}
	}
}

// Analyze passes every frame of signal to visit without resynthesis.
// It stops at the first error from visit or from ctx.
func (p *FramePipeline) Analyze(ctx context.Context, signal []float64, visit func(Frame) error, progress common.ProgressFunc) error {
	total := p.FrameCount(len(signal))

	for frame := range p.Frames(signal) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visit(frame); err != nil {
			return err
		}
		p.report(progress, frame.Index, total)
	}

	return nil
}

// Process runs analysis, edit and overlap-add synthesis in one pass and
// returns a stream of OutputLength(len(signal)) samples. A nil edit
// reconstructs the windowed signal.
func (p *FramePipeline) Process(ctx context.Context, signal []float64, edit SpectrumEditor, progress common.ProgressFunc) ([]float64, error) {
	total := p.FrameCount(len(signal))
	out := make([]float64, p.OutputLength(len(signal)))
	if total == 0 {
		return out, nil
	}

	synth := p.newOverlapAdder(out)

	for frame := range p.Frames(signal) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if edit != nil {
			edit(frame)
		}
		synth.add(frame)
		p.report(progress, frame.Index, total)
	}

	return out, nil
}

// OverlapAdd inverse-transforms every frame and sums the real parts into a
// stream of maxOffset + N samples. Overlapping regions add.
func (p *FramePipeline) OverlapAdd(frames []Frame) []float64 {
	if len(frames) == 0 {
		return []float64{}
	}

	last := 0
	for _, frame := range frames {
		last = max(last, frame.Offset)
	}

	out := make([]float64, last+p.size)
	synth := p.newOverlapAdder(out)
	for _, frame := range frames {
		synth.add(frame)
	}

	return out
}

// OverlapGain returns the mean amplitude gain that overlap-add applies to an
// unedited signal: the window's coefficient sum divided by the hop. Dividing
// a synthesized stream by it restores the input level away from the edges.
func (p *FramePipeline) OverlapGain() float64 {
	return floats.Sum(p.window.GetCoefficients()) / float64(p.hop)
}

func (p *FramePipeline) report(progress common.ProgressFunc, index, total int) {
	if progress == nil || total == 0 || index%p.progressInterval != 0 {
		return
	}
	progress(float64(index) / float64(total))
}

// overlapAdder accumulates inverse-transformed frames into out
type overlapAdder struct {
	fft  *FFT
	buf  []float64
	out  []float64
	size int
}

func (p *FramePipeline) newOverlapAdder(out []float64) *overlapAdder {
	return &overlapAdder{
		fft:  p.newFFT(),
		buf:  make([]float64, p.size),
		out:  out,
		size: p.size,
	}
}

func (o *overlapAdder) add(frame Frame) {
	o.fft.ComputeInverseReal(o.buf, frame.Spectrum)

	dst := o.out[frame.Offset : frame.Offset+o.size]
	for i, v := range o.buf {
		dst[i] += v
	}
}
