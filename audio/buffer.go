package audio

import (
	"errors"
	"fmt"
	"time"
)

// Buffer holds interleaved PCM samples in [-1, 1].
//
// Buffers are treated as immutable once handed to a processing operation;
// every operation returns a new Buffer carrying the input's sample rate and
// channel count.
type Buffer struct {
	Samples    []float64 `json:"-"` // interleaved, frame-major
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
	Label      string    `json:"label,omitempty"` // source name, suffixed on derived buffers
}

var (
	errNoSampleRate = errors.New("sample rate must be positive")
	errNoChannels   = errors.New("channel count must be positive")
)

// NewBuffer wraps samples without copying them
func NewBuffer(samples []float64, sampleRate, channels int, label string) *Buffer {
	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		Label:      label,
	}
}

// Validate checks the format fields and that the sample count is a whole
// number of frames.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", errNoSampleRate, b.SampleRate)
	}
	if b.Channels <= 0 {
		return fmt.Errorf("%w: %d", errNoChannels, b.Channels)
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(b.Samples), b.Channels)
	}
	return nil
}

// Frames returns the number of samples per channel
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Seconds returns the playback length in seconds
func (b *Buffer) Seconds() float64 {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate*b.Channels)
}

// Duration returns the playback length
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// IsEmpty reports whether the buffer holds no samples
func (b *Buffer) IsEmpty() bool {
	return len(b.Samples) == 0
}

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	c := *b
	c.Samples = append([]float64(nil), b.Samples...)
	return &c
}

// Derive returns a buffer with b's format holding samples, labelled with
// suffix appended to b's label.
func (b *Buffer) Derive(samples []float64, suffix string) *Buffer {
	return &Buffer{
		Samples:    samples,
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		Label:      b.Label + suffix,
	}
}
