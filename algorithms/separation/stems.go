package separation

import (
	"fmt"
	"iter"

	"github.com/RyanBlaney/sonido-grabber/audio"
)

// Stems holds one buffer per separated stem
type Stems struct {
	Vocals *audio.Buffer `json:"vocals"`
	Bass   *audio.Buffer `json:"bass"`
	Drums  *audio.Buffer `json:"drums"`
	Other  *audio.Buffer `json:"other"`
}

func (s *Stems) slot(stem StemType) (**audio.Buffer, error) {
	switch stem {
	case Vocals:
		return &s.Vocals, nil
	case Bass:
		return &s.Bass, nil
	case Drums:
		return &s.Drums, nil
	case Other:
		return &s.Other, nil
	default:
		return nil, fmt.Errorf("%w: %v is not a separated stem", ErrUnknownStem, stem)
	}
}

// Get returns the buffer for stem
func (s *Stems) Get(stem StemType) (*audio.Buffer, error) {
	p, err := s.slot(stem)
	if err != nil {
		return nil, err
	}
	return *p, nil
}

// Set stores the buffer for stem
func (s *Stems) Set(stem StemType, buf *audio.Buffer) error {
	p, err := s.slot(stem)
	if err != nil {
		return err
	}
	*p = buf
	return nil
}

// All yields every separated stem in SeparatedStems order
func (s *Stems) All() iter.Seq2[StemType, *audio.Buffer] {
	return func(yield func(StemType, *audio.Buffer) bool) {
		for _, stem := range SeparatedStems {
			buf, _ := s.Get(stem)
			if !yield(stem, buf) {
				return
			}
		}
	}
}
