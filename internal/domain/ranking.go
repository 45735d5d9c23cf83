package domain

import "time"

// RankedBelief is one row of a ranked view.
type RankedBelief struct {
	Technique     string  `json:"technique"`
	Effectiveness float64 `json:"effectiveness"`
	Uncertainty   float64 `json:"uncertainty"`
	Certainty     float64 `json:"certainty"`
	IntervalLow   float64 `json:"interval_low"`
	IntervalHigh  float64 `json:"interval_high"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	EvidenceCount int     `json:"evidence_count"`
}

// Comparison is the Monte Carlo estimate of which of two techniques is more effective.
type Comparison struct {
	TechniqueA     string  `json:"technique_a"`
	TechniqueB     string  `json:"technique_b"`
	EffectivenessA float64 `json:"effectiveness_a"`
	EffectivenessB float64 `json:"effectiveness_b"`
	CertaintyA     float64 `json:"certainty_a"`
	CertaintyB     float64 `json:"certainty_b"`
	ProbABetter    float64 `json:"prob_a_better"`
	ProbBBetter    float64 `json:"prob_b_better"`
	StdError       float64 `json:"std_error"`
	MeanDifference float64 `json:"mean_difference"`
	DifferenceLow  float64 `json:"difference_low"`
	DifferenceHigh float64 `json:"difference_high"`
	Samples        int     `json:"samples"`
	Seed           uint64  `json:"seed"`
}

// Summary is the digest a report assembler renders.
type Summary struct {
	TakenAt         time.Time      `json:"taken_at"`
	TotalTechniques int            `json:"total_techniques"`
	TotalEvidence   int            `json:"total_evidence"`
	MostPromising   []string       `json:"most_promising"`
	MostOverhyped   []string       `json:"most_overhyped"`
	MostUncertain   []string       `json:"most_uncertain"`
	TopRanking      []RankedBelief `json:"top_ranking"`
}
