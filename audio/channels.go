package audio

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Deinterleave splits b into one slice per channel
func Deinterleave(b *Buffer) [][]float64 {
	frames := b.Frames()
	out := make([][]float64, b.Channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}

	for i := range frames {
		base := i * b.Channels
		for ch := range out {
			out[ch][i] = b.Samples[base+ch]
		}
	}
	return out
}

// Downmix averages all channels into one. A mono buffer is copied.
func Downmix(b *Buffer) []float64 {
	if b.Channels == 1 {
		return append([]float64(nil), b.Samples...)
	}

	channels := Deinterleave(b)
	mono := channels[0]
	for _, ch := range channels[1:] {
		floats.Add(mono, ch)
	}
	floats.Scale(1/float64(b.Channels), mono)
	return mono
}

// ExtractChannel returns a copy of channel ch
func ExtractChannel(b *Buffer, ch int) ([]float64, error) {
	if ch < 0 || ch >= b.Channels {
		return nil, fmt.Errorf("channel %d out of range [0, %d)", ch, b.Channels)
	}

	frames := b.Frames()
	out := make([]float64, frames)
	for i := range frames {
		out[i] = b.Samples[i*b.Channels+ch]
	}
	return out, nil
}

// Interleave merges equal-length channel slices into frame-major order
func Interleave(channels [][]float64) ([]float64, error) {
	if len(channels) == 0 {
		return []float64{}, nil
	}

	frames := len(channels[0])
	for ch, data := range channels {
		if len(data) != frames {
			return nil, fmt.Errorf("channel %d has %d samples, want %d", ch, len(data), frames)
		}
	}

	n := len(channels)
	out := make([]float64, frames*n)
	for ch, data := range channels {
		for i, v := range data {
			out[i*n+ch] = v
		}
	}
	return out, nil
}

// Distribute copies a mono stream into every channel of an interleaved stream
func Distribute(mono []float64, channels int) []float64 {
	if channels <= 1 {
		return append([]float64(nil), mono...)
	}

	out := make([]float64, len(mono)*channels)
	for i, v := range mono {
		frame := out[i*channels : (i+1)*channels]
		for ch := range frame {
			frame[ch] = v
		}
	}
	return out
}

// FitLength returns x padded with zeros or truncated to n samples
func FitLength(x []float64, n int) []float64 {
	if len(x) == n {
		return x
	}
	out := make([]float64, n)
	copy(out, x)
	return out
}
