package engine

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-grabber/algorithms/separation"
)

// Sentinel errors for invalid input
var (
	ErrNilBuffer      = errors.New("audio buffer is nil")
	ErrInvalidBuffer  = errors.New("invalid audio buffer")
	ErrBufferTooShort = errors.New("audio buffer shorter than one analysis frame")
	ErrUnknownStem    = separation.ErrUnknownStem
)

// OperationError reports which engine operation failed and on what
type OperationError struct {
	Op    string // "detect_notes", "suppress_noise", "extract_stem"
	Label string // buffer label
	Stem  string // set by stem operations
	Cause error
}

func (e *OperationError) Error() string {
	target := e.Label
	if e.Stem != "" {
		target = fmt.Sprintf("%s (%s)", e.Label, e.Stem)
	}
	if target == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Op, target, e.Cause)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

func newOperationError(op, label string, stem separation.StemType, cause error) *OperationError {
	e := &OperationError{Op: op, Label: label, Cause: cause}
	if stem.Valid() && stem != separation.Original {
		e.Stem = stem.String()
	}
	return e
}
