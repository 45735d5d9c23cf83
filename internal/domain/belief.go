package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// PriorAlpha and PriorBeta seed every new technique at Beta(2,2):
	// symmetric, mean 0.5, wide enough that early evidence moves it quickly.
	PriorAlpha = 2.0
	PriorBeta  = 2.0

	// CertaintySaturation is the evidence mass (alpha+beta) at which certainty reaches 1.
	CertaintySaturation = 100.0

	// DefaultIntervalCoverage is the credible interval reported when none is configured.
	DefaultIntervalCoverage = 0.95
)

// BeliefState is the Beta(alpha, beta) posterior over one technique's
// effectiveness. Derived statistics are computed on demand, never stored.
type BeliefState struct {
	Alpha         float64   `json:"alpha"`
	Beta          float64   `json:"beta"`
	EvidenceCount int       `json:"evidence_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

// NewBeliefState returns the Beta(2,2) prior stamped with now.
func NewBeliefState(now time.Time) BeliefState {
	return BeliefState{Alpha: PriorAlpha, Beta: PriorBeta, LastUpdated: now}
}

// EvidenceIncrements splits one observation at the 0.5 midpoint into the
// amounts it adds to alpha and beta. Every observation adds exactly
// confidence in total mass. At exactly 0.5 the two branch formulas disagree
// ((0, c) above, (c, 0) below), so the midpoint takes their average: a
// symmetric nudge of c/2 on each side.
func EvidenceIncrements(value, confidence float64) (dAlpha, dBeta float64) {
	switch {
	case value > 0.5:
		return confidence * (value - 0.5) * 2, confidence * (1 - value) * 2
	case value < 0.5:
		return confidence * value * 2, confidence * (0.5 - value) * 2
	default:
		return confidence * 0.5, confidence * 0.5
	}
}

// EvidenceTarget is the effectiveness an observation pulls toward: the mean
// of its own increment. Applying it moves effectiveness from the current
// value toward this target and never past it.
func EvidenceTarget(value float64) float64 {
	switch {
	case value > 0.5:
		return 2*value - 1
	case value < 0.5:
		return 2 * value
	default:
		return 0.5
	}
}

// Apply returns the state after one observation. Zero confidence returns
// the receiver unchanged, bit for bit.
func (b BeliefState) Apply(value, confidence float64) BeliefState {
	if confidence == 0 {
		return b
	}
	dAlpha, dBeta := EvidenceIncrements(value, confidence)
	b.Alpha += dAlpha
	b.Beta += dBeta
	b.EvidenceCount++
	return b
}

// Mass is the total evidence weight alpha+beta, prior included.
func (b BeliefState) Mass() float64 {
	return b.Alpha + b.Beta
}

// Effectiveness is the posterior mean.
func (b BeliefState) Effectiveness() float64 {
	return b.Alpha / (b.Alpha + b.Beta)
}

// Uncertainty is the posterior standard deviation.
func (b BeliefState) Uncertainty() float64 {
	total := b.Alpha + b.Beta
	return math.Sqrt(b.Alpha * b.Beta / (total * total * (total + 1)))
}

// Certainty maps accumulated mass onto [0,1], saturating at CertaintySaturation.
func (b BeliefState) Certainty() float64 {
	return math.Min(1.0, (b.Alpha+b.Beta)/CertaintySaturation)
}

// ConfidenceInterval returns the equal-tailed credible interval covering
// the given probability mass.
func (b BeliefState) ConfidenceInterval(coverage float64) (lower, upper float64, err error) {
	if math.IsNaN(coverage) || coverage <= 0 || coverage >= 1 {
		return 0, 0, ErrInvalidCoverage
	}
	tail := (1 - coverage) / 2
	lower, err = BetaQuantile(b.Alpha, b.Beta, tail)
	if err != nil {
		return 0, 0, err
	}
	upper, err = BetaQuantile(b.Alpha, b.Beta, 1-tail)
	if err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

// Check reports whether the state satisfies the prior floor and is finite.
func (b BeliefState) Check() error {
	switch {
	case math.IsNaN(b.Alpha) || math.IsInf(b.Alpha, 0):
		return fmt.Errorf("alpha is not finite")
	case math.IsNaN(b.Beta) || math.IsInf(b.Beta, 0):
		return fmt.Errorf("beta is not finite")
	case b.Alpha < PriorAlpha:
		return fmt.Errorf("alpha %v below prior floor %v", b.Alpha, PriorAlpha)
	case b.Beta < PriorBeta:
		return fmt.Errorf("beta %v below prior floor %v", b.Beta, PriorBeta)
	case b.EvidenceCount < 0:
		return fmt.Errorf("evidence_count %d is negative", b.EvidenceCount)
	}
	return nil
}
