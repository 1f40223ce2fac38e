package spectral

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend selects the transform implementation behind an FFT
type Backend string

const (
	// BackendRadix2 is the built-in iterative decimation-in-time transform
	BackendRadix2 Backend = "radix2"
	// BackendGoDSP delegates to github.com/mjibson/go-dsp/fft
	BackendGoDSP Backend = "go-dsp"
	// BackendGonum delegates to gonum.org/v1/gonum/dsp/fourier
	BackendGonum Backend = "gonum"
)

// ParseBackend maps a configuration string to a Backend. The empty string
// selects BackendRadix2.
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case "", BackendRadix2:
		return BackendRadix2, nil
	case BackendGoDSP:
		return BackendGoDSP, nil
	case BackendGonum:
		return BackendGonum, nil
	default:
		return "", fmt.Errorf("unknown transform backend %q", name)
	}
}

// FFT computes forward and inverse transforms of one fixed power-of-two size.
//
// Every method expects slices of exactly Size() elements and panics
// otherwise; a mismatched length is a programming error, not a runtime
// condition. Scratch space is owned by the FFT, so a single instance must not
// be shared between goroutines.
type FFT struct {
	size    int
	backend Backend

	// radix-2 tables: twiddles[k] = exp(-2*pi*i*k/size) for k < size/2
	twiddles []complex128
	bitrev   []int

	scratch []complex128
	gonum   *fourier.CmplxFFT
}

// NewFFT creates an FFT for size points. size must be a power of two.
func NewFFT(size int, backend Backend) (*FFT, error) {
	if !common.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("transform size must be a positive power of two: %d", size)
	}

	backend, err := ParseBackend(string(backend))
	if err != nil {
		return nil, err
	}

	f := &FFT{
		size:    size,
		backend: backend,
		scratch: make([]complex128, size),
	}

	switch backend {
	case BackendRadix2:
		f.buildTables()
	case BackendGonum:
		f.gonum = fourier.NewCmplxFFT(size)
	}

	return f, nil
}

// mustFFT is NewFFT for callers that have already validated size
func mustFFT(size int) *FFT {
	f, err := NewFFT(size, BackendRadix2)
	if err != nil {
		panic(fmt.Sprintf("spectral: %v", err))
	}
	return f
}

func (f *FFT) buildTables() {
	n := f.size
	f.twiddles = make([]complex128, n/2)
	for k := range f.twiddles {
		angle := -2 * math.Pi * float64(k) / float64(n)
		f.twiddles[k] = complex(math.Cos(angle), math.Sin(angle))
	}

	logN := bits.TrailingZeros(uint(n))
	f.bitrev = make([]int, n)
	for i := range f.bitrev {
		f.bitrev[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - logN))
	}
}

// Size returns the transform length
func (f *FFT) Size() int {
	return f.size
}

// Backend returns the transform implementation in use
func (f *FFT) Backend() Backend {
	return f.backend
}

func (f *FFT) checkLen(what string, n int) {
	if n != f.size {
		panic(fmt.Sprintf("spectral: %s length %d does not match transform size %d", what, n, f.size))
	}
}

// Compute returns the spectrum of a real signal
func (f *FFT) Compute(x []float64) []complex128 {
	out := make([]complex128, f.size)
	f.ComputeInto(out, x)
	return out
}

// ComputeInto writes the spectrum of the real signal x into dst
func (f *FFT) ComputeInto(dst []complex128, x []float64) {
	f.checkLen("input", len(x))
	f.checkLen("output", len(dst))

	for i, v := range x {
		dst[i] = complex(v, 0)
	}
	f.forward(dst, dst)
}

// ComputeComplex writes the forward transform of src into dst. dst and src may alias.
func (f *FFT) ComputeComplex(dst, src []complex128) {
	f.checkLen("input", len(src))
	f.checkLen("output", len(dst))
	f.forward(dst, src)
}

// ComputeInverse returns the inverse transform of spectrum
func (f *FFT) ComputeInverse(spectrum []complex128) []complex128 {
	out := make([]complex128, f.size)
	f.ComputeInverseInto(out, spectrum)
	return out
}

// ComputeInverseInto writes the inverse transform of src into dst. dst and src may alias.
//
// The inverse is conj(forward(conj(x)))/N for every backend except go-dsp,
// which provides its own normalized inverse.
func (f *FFT) ComputeInverseInto(dst, src []complex128) {
	f.checkLen("input", len(src))
	f.checkLen("output", len(dst))

	if f.backend == BackendGoDSP {
		copy(dst, fft.IFFT(src))
		return
	}

	for i, v := range src {
		f.scratch[i] = cmplx.Conj(v)
	}
	f.forward(f.scratch, f.scratch)

	scale := 1 / float64(f.size)
	for i, v := range f.scratch {
		dst[i] = complex(real(v)*scale, -imag(v)*scale)
	}
}

// ComputeInverseReal writes the real part of the inverse transform of src into dst
func (f *FFT) ComputeInverseReal(dst []float64, src []complex128) {
	f.checkLen("input", len(src))
	f.checkLen("output", len(dst))

	f.ComputeInverseInto(f.scratch, src)
	for i, v := range f.scratch {
		dst[i] = real(v)
	}
}

func (f *FFT) forward(dst, src []complex128) {
	switch f.backend {
	case BackendGoDSP:
		copy(dst, fft.FFT(src))
	case BackendGonum:
		// gonum may not accept aliased buffers on every version
		tmp := src
		if &dst[0] == &src[0] {
			tmp = make([]complex128, f.size)
			copy(tmp, src)
		}
		f.gonum.Coefficients(dst, tmp)
	default:
		if &dst[0] != &src[0] {
			copy(dst, src)
		}
		f.radix2(dst)
	}
}

// radix2 transforms a in place: bit-reversal permutation followed by
// log2(N) butterfly passes. Pass m combines pairs of m/2-point transforms
// with twiddles exp(-2*pi*i*k/m), read from the N-point table at stride N/m.
func (f *FFT) radix2(a []complex128) {
	n := f.size

	for i, j := range f.bitrev {
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	for m := 2; m <= n; m <<= 1 {
		half := m >> 1
		stride := n / m
		for start := 0; start < n; start += m {
			for k := range half {
				w := f.twiddles[k*stride]
				u := a[start+k]
				v := a[start+k+half] * w
				a[start+k] = u + v
				a[start+k+half] = u - v
			}
		}
	}
}

// ForwardTransform returns the spectrum of a real signal whose length is a
// power of two. Any other length panics.
func ForwardTransform(x []float64) []complex128 {
	return mustFFT(len(x)).Compute(x)
}

// InverseTransform returns the complex inverse transform of a spectrum whose
// length is a power of two. Any other length panics.
func InverseTransform(spectrum []complex128) []complex128 {
	return mustFFT(len(spectrum)).ComputeInverse(spectrum)
}
