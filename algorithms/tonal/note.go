package tonal

import (
	"fmt"
	"math"
)

// Note is a detected pitched event
type Note struct {
	Time       float64 `json:"time_seconds"`     // onset, seconds from buffer start
	Duration   float64 `json:"duration_seconds"` // seconds, > 0
	MIDINote   int     `json:"midi_note"`        // 0-127
	Frequency  float64 `json:"frequency_hz"`     // frequency of the first frame
	Velocity   int     `json:"velocity"`         // 0-127
	Confidence float64 `json:"confidence"`       // 0-1
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Name returns the scientific pitch name, e.g. "A4" for MIDI 69
func (n Note) Name() string {
	return MIDINoteName(n.MIDINote)
}

// End returns the offset time in seconds
func (n Note) End() float64 {
	return n.Time + n.Duration
}

// Ticks returns the start and length of the note in MIDI ticks
func (n Note) Ticks(bpm float64, ppq int) (start, length int) {
	return SecondsToTicks(n.Time, bpm, ppq), SecondsToTicks(n.Duration, bpm, ppq)
}

func (n Note) String() string {
	return fmt.Sprintf("%s @ %.3fs for %.3fs (vel %d)", n.Name(), n.Time, n.Duration, n.Velocity)
}

// MIDINoteName returns the name of MIDI note m; octave -1 starts at 0
func MIDINoteName(m int) string {
	m = clampMIDI(m)
	return fmt.Sprintf("%s%d", noteNames[m%12], m/12-1)
}

// FrequencyToMIDI returns round(69 + 12*log2(f/440)) clamped to 0-127.
// Non-positive frequencies map to 0.
func FrequencyToMIDI(freq float64) int {
	if freq <= 0 {
		return 0
	}
	return clampMIDI(int(math.Round(69 + 12*math.Log2(freq/440))))
}

// MIDIToFrequency returns 440 * 2^((m-69)/12)
func MIDIToFrequency(m int) float64 {
	return 440 * math.Pow(2, float64(m-69)/12)
}

// SecondsToTicks converts a time to MIDI ticks at a fixed tempo,
// truncating: int(seconds * bpm * ppq / 60).
func SecondsToTicks(seconds, bpm float64, ppq int) int {
	return int(seconds * bpm * float64(ppq) / 60)
}

// VelocityFromConfidence maps confidence 0-1 to velocity 0-127
func VelocityFromConfidence(confidence float64) int {
	return clampMIDI(int(math.Round(confidence * 127)))
}

func clampMIDI(m int) int {
	return max(0, min(127, m))
}
