package separation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStem is returned for a StemType outside the defined set
var ErrUnknownStem = errors.New("unknown stem type")

// StemType identifies one heuristic source in a mixture
type StemType int

const (
	Vocals StemType = iota
	Drums
	Bass
	Other
	// Original is the unprocessed input
	Original
)

// SeparatedStems lists the stems SeparateStems produces, in output order
var SeparatedStems = [...]StemType{Vocals, Bass, Drums, Other}

func (s StemType) String() string {
	switch s {
	case Vocals:
		return "vocals"
	case Drums:
		return "drums"
	case Bass:
		return "bass"
	case Other:
		return "other"
	case Original:
		return "original"
	default:
		return fmt.Sprintf("StemType(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined stems
func (s StemType) Valid() bool {
	return s >= Vocals && s <= Original
}

// ParseStemType maps a case-insensitive name to a StemType
func ParseStemType(name string) (StemType, error) {
	for s := Vocals; s <= Original; s++ {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStem, name)
}

func (s StemType) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStem, int(s))
	}
	return []byte(s.String()), nil
}

func (s *StemType) UnmarshalText(text []byte) error {
	parsed, err := ParseStemType(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
