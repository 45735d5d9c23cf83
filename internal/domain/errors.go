package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEvidence      = errors.New("invalid evidence")
	ErrUnknownTechnique     = errors.New("unknown technique")
	ErrNumericalInstability = errors.New("numerical instability")
	ErrInvalidSnapshot      = errors.New("invalid snapshot")
	ErrInvalidCoverage      = errors.New("interval coverage must be in (0, 1)")
)

// EvidenceError reports which record of a batch failed validation and why.
type EvidenceError struct {
	Index  int
	Field  string
	Reason string
}

func (e *EvidenceError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid evidence: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid evidence at index %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *EvidenceError) Unwrap() error {
	return ErrInvalidEvidence
}
