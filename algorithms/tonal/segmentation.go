package tonal

// NoteSegmenter groups accepted per-frame pitch estimates into notes.
//
// A frame whose MIDI number matches the most recently started note extends
// that note by one hop, even across unvoiced or rejected frames in between.
// Any other accepted frame starts a new note. Non-accepted frames are ignored.
type NoteSegmenter struct {
	sampleRate  int
	hop         int
	minDuration float64
	notes       []Note
}

// NewNoteSegmenter creates a segmenter for frames spaced hop samples apart
func NewNoteSegmenter(sampleRate, hop int, minDuration float64) *NoteSegmenter {
	return &NoteSegmenter{
		sampleRate:  sampleRate,
		hop:         hop,
		minDuration: minDuration,
	}
}

// Push feeds the estimate for the frame starting at sample offset.
// Frames must be pushed in time order.
func (s *NoteSegmenter) Push(offset int, est PitchEstimate) {
	if !est.Accepted() {
		return
	}

	step := float64(s.hop) / float64(s.sampleRate)

	if n := len(s.notes); n > 0 && s.notes[n-1].MIDINote == est.MIDINote {
		s.notes[n-1].Duration += step
		return
	}

	s.notes = append(s.notes, Note{
		Time:       float64(offset) / float64(s.sampleRate),
		Duration:   step,
		MIDINote:   est.MIDINote,
		Frequency:  est.Frequency,
		Velocity:   VelocityFromConfidence(est.Confidence),
		Confidence: est.Confidence,
	})
}

// Notes returns the notes lasting at least the minimum duration, in start
// order. The result is never nil.
func (s *NoteSegmenter) Notes() []Note {
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.Duration >= s.minDuration {
			out = append(out, n)
		}
	}
	return out
}

// Reset discards all notes
func (s *NoteSegmenter) Reset() {
	s.notes = s.notes[:0]
}
