package belief

import (
	"sort"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
)

const (
	DefaultMinCertainty             = 0.1
	DefaultOverhypeMinCertainty     = 0.3
	DefaultOverhypeMaxEffectiveness = 0.5
	DefaultUncertainMaxCertainty    = 0.3
	DefaultSummaryTopK              = 5

	summaryRankingSize = 10
)

// Thresholds are the cut-offs Summarize uses for its views.
type Thresholds struct {
	MinCertainty             float64
	OverhypeMinCertainty     float64
	OverhypeMaxEffectiveness float64
	UncertainMaxCertainty    float64
}

// Ranker produces ordered views over a snapshot. Every method is a pure
// function of its arguments.
type Ranker struct {
	Coverage   float64
	Thresholds Thresholds
}

// NewRanker returns a Ranker with the default coverage and thresholds.
func NewRanker() Ranker {
	return Ranker{
		Coverage: domain.DefaultIntervalCoverage,
		Thresholds: Thresholds{
			MinCertainty:             DefaultMinCertainty,
			OverhypeMinCertainty:     DefaultOverhypeMinCertainty,
			OverhypeMaxEffectiveness: DefaultOverhypeMaxEffectiveness,
			UncertainMaxCertainty:    DefaultUncertainMaxCertainty,
		},
	}
}

// Describe returns the ranked row for a single belief.
func (r Ranker) Describe(technique string, b domain.BeliefState) (domain.RankedBelief, error) {
	low, high, err := b.ConfidenceInterval(r.Coverage)
	if err != nil {
		return domain.RankedBelief{}, err
	}
	return domain.RankedBelief{
		Technique:     technique,
		Effectiveness: b.Effectiveness(),
		Uncertainty:   b.Uncertainty(),
		Certainty:     b.Certainty(),
		IntervalLow:   low,
		IntervalHigh:  high,
		Alpha:         b.Alpha,
		Beta:          b.Beta,
		EvidenceCount: b.EvidenceCount,
	}, nil
}

func (r Ranker) describeWhere(snap domain.Snapshot, keep func(domain.BeliefState) bool) ([]domain.RankedBelief, error) {
	rows := make([]domain.RankedBelief, 0, len(snap.Beliefs))
	for name, b := range snap.Beliefs {
		if !keep(b) {
			continue
		}
		row, err := r.Describe(name, b)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// All describes every technique, ordered by name.
func (r Ranker) All(snap domain.Snapshot) ([]domain.RankedBelief, error) {
	rows, err := r.describeWhere(snap, func(domain.BeliefState) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Technique < rows[j].Technique })
	return rows, nil
}

// RankByEffectiveness keeps techniques with certainty >= minCertainty, most
// effective first. Ties go to the lower uncertainty, then to the name.
func (r Ranker) RankByEffectiveness(snap domain.Snapshot, minCertainty float64) ([]domain.RankedBelief, error) {
	rows, err := r.describeWhere(snap, func(b domain.BeliefState) bool {
		return b.Certainty() >= minCertainty
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Effectiveness != b.Effectiveness {
			return a.Effectiveness > b.Effectiveness
		}
		if a.Uncertainty != b.Uncertainty {
			return a.Uncertainty < b.Uncertainty
		}
		return a.Technique < b.Technique
	})
	return rows, nil
}

// Overhyped keeps techniques that have accumulated plenty of evidence
// (certainty >= minCertainty) that points at mediocre outcomes
// (effectiveness <= maxEffectiveness), most certain first.
func (r Ranker) Overhyped(snap domain.Snapshot, minCertainty, maxEffectiveness float64) ([]domain.RankedBelief, error) {
	rows, err := r.describeWhere(snap, func(b domain.BeliefState) bool {
		return b.Certainty() >= minCertainty && b.Effectiveness() <= maxEffectiveness
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Certainty != b.Certainty {
			return a.Certainty > b.Certainty
		}
		if a.Effectiveness != b.Effectiveness {
			return a.Effectiveness < b.Effectiveness
		}
		return a.Technique < b.Technique
	})
	return rows, nil
}

// Uncertain keeps techniques with certainty < maxCertainty, least evidence
// first. A positive limit truncates the result.
func (r Ranker) Uncertain(snap domain.Snapshot, maxCertainty float64, limit int) ([]domain.RankedBelief, error) {
	rows, err := r.describeWhere(snap, func(b domain.BeliefState) bool {
		return b.Certainty() < maxCertainty
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if ma, mb := a.Alpha+a.Beta, b.Alpha+b.Beta; ma != mb {
			return ma < mb
		}
		return a.Technique < b.Technique
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Summarize assembles the report digest using the ranker's thresholds.
func (r Ranker) Summarize(snap domain.Snapshot, topK int) (*domain.Summary, error) {
	if topK <= 0 {
		topK = DefaultSummaryTopK
	}

	ranking, err := r.RankByEffectiveness(snap, r.Thresholds.MinCertainty)
	if err != nil {
		return nil, err
	}
	overhyped, err := r.Overhyped(snap, r.Thresholds.OverhypeMinCertainty, r.Thresholds.OverhypeMaxEffectiveness)
	if err != nil {
		return nil, err
	}
	uncertain, err := r.Uncertain(snap, r.Thresholds.UncertainMaxCertainty, topK)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, b := range snap.Beliefs {
		total += b.EvidenceCount
	}

	top := ranking
	if len(top) > summaryRankingSize {
		top = top[:summaryRankingSize]
	}

	return &domain.Summary{
		TakenAt:         snap.TakenAt,
		TotalTechniques: len(snap.Beliefs),
		TotalEvidence:   total,
		MostPromising:   names(ranking, topK),
		MostOverhyped:   names(overhyped, topK),
		MostUncertain:   names(uncertain, topK),
		TopRanking:      top,
	}, nil
}

func names(rows []domain.RankedBelief, limit int) []string {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Technique
	}
	return out
}
