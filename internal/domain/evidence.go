package domain

import (
	"math"
	"strings"
	"time"
)

// SourceKind tags where a piece of evidence came from. It is informational
// only and never changes the update math.
type SourceKind string

const (
	SourcePaper      SourceKind = "paper"
	SourceRepository SourceKind = "repository"
	SourceOther      SourceKind = "other"
)

// ValidSourceKind reports whether s names a known source kind.
func ValidSourceKind(s string) bool {
	switch SourceKind(s) {
	case SourcePaper, SourceRepository, SourceOther:
		return true
	}
	return false
}

// Evidence is one directional, confidence-weighted observation about one technique.
// Value above 0.5 favors the technique, below 0.5 disfavors it.
type Evidence struct {
	Technique  string     `json:"technique"`
	Value      float64    `json:"value"`
	Confidence float64    `json:"confidence"`
	SourceKind SourceKind `json:"source_kind"`
	Source     string     `json:"source,omitempty"`
	ObservedAt time.Time  `json:"observed_at"`
}

// NormalizeTechnique lower-cases a technique name and collapses inner whitespace,
// so "Soft  Actor-Critic" and "soft actor-critic" track the same belief.
func NormalizeTechnique(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Normalized returns a copy with the technique name normalized and an empty
// source kind defaulted to SourceOther.
func (e Evidence) Normalized() Evidence {
	e.Technique = NormalizeTechnique(e.Technique)
	if e.SourceKind == "" {
		e.SourceKind = SourceOther
	}
	return e
}

// Validate checks the record without clamping. Out-of-range values are
// upstream bugs and are reported, never silently fixed.
func (e Evidence) Validate() error {
	return e.validate(-1)
}

func (e Evidence) validate(index int) error {
	if NormalizeTechnique(e.Technique) == "" {
		return &EvidenceError{Index: index, Field: "technique", Reason: "must not be blank"}
	}
	if !inUnitInterval(e.Value) {
		return &EvidenceError{Index: index, Field: "value", Reason: "must be within [0, 1]"}
	}
	if !inUnitInterval(e.Confidence) {
		return &EvidenceError{Index: index, Field: "confidence", Reason: "must be within [0, 1]"}
	}
	if e.SourceKind != "" && !ValidSourceKind(string(e.SourceKind)) {
		return &EvidenceError{Index: index, Field: "source_kind", Reason: "must be one of paper, repository, other"}
	}
	return nil
}

// ValidateBatch validates every record and returns the first failure.
// Callers apply nothing from a batch that fails here.
func ValidateBatch(batch []Evidence) error {
	for i, e := range batch {
		if err := e.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
