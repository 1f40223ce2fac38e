package windowing

// Window is an analysis window applied to every frame before transformation
type Window interface {
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

var _ Window = (*Hann)(nil)
