package service

import (
	"context"

	"github.com/Harshitk-cp/rlbelief/internal/belief"
	"github.com/Harshitk-cp/rlbelief/internal/domain"
)

// SnapshotReader is the read side of BeliefService.
type SnapshotReader interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

var _ SnapshotReader = (*BeliefService)(nil)

// RankingConfig holds the defaults used when a caller leaves a knob unset.
type RankingConfig struct {
	Coverage   float64
	Thresholds belief.Thresholds
	Samples    int
	Seed       uint64
	TopK       int
}

// DefaultRankingConfig returns the built-in ranking defaults.
func DefaultRankingConfig() RankingConfig {
	r := belief.NewRanker()
	return RankingConfig{
		Coverage:   r.Coverage,
		Thresholds: r.Thresholds,
		Samples:    belief.DefaultCompareSamples,
		Seed:       1,
		TopK:       belief.DefaultSummaryTopK,
	}
}

// RankingService serves ranked views of the current beliefs.
type RankingService struct {
	beliefs SnapshotReader
	ranker  belief.Ranker
	cfg     RankingConfig
}

// NewRankingService ranks the beliefs read from beliefs.
func NewRankingService(beliefs SnapshotReader, cfg RankingConfig) *RankingService {
	return &RankingService{
		beliefs: beliefs,
		ranker:  belief.Ranker{Coverage: cfg.Coverage, Thresholds: cfg.Thresholds},
		cfg:     cfg,
	}
}

// Config returns the defaults the service was built with.
func (s *RankingService) Config() RankingConfig {
	return s.cfg
}

// All ranks every tracked technique by effectiveness.
func (s *RankingService) All(ctx context.Context) ([]domain.RankedBelief, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.All(snap)
}

// Describe returns one technique with its derived statistics.
func (s *RankingService) Describe(ctx context.Context, technique string) (domain.RankedBelief, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return domain.RankedBelief{}, err
	}
	name := domain.NormalizeTechnique(technique)
	b, ok := snap.Beliefs[name]
	if !ok {
		return domain.RankedBelief{}, domain.ErrUnknownTechnique
	}
	return s.ranker.Describe(name, b)
}

// Effective lists techniques at or above minCertainty, most effective first.
func (s *RankingService) Effective(ctx context.Context, minCertainty float64) ([]domain.RankedBelief, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.RankByEffectiveness(snap, minCertainty)
}

// Overhyped lists confidently ineffective techniques.
func (s *RankingService) Overhyped(ctx context.Context, minCertainty, maxEffectiveness float64) ([]domain.RankedBelief, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.Overhyped(snap, minCertainty, maxEffectiveness)
}

// Uncertain lists the least certain techniques, at most limit of them.
func (s *RankingService) Uncertain(ctx context.Context, maxCertainty float64, limit int) ([]domain.RankedBelief, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.Uncertain(snap, maxCertainty, limit)
}

// Compare runs the Monte Carlo comparison. Zero samples means the configured
// default; a nil seed means the configured seed.
func (s *RankingService) Compare(ctx context.Context, a, b string, samples int, seed *uint64) (*domain.Comparison, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if samples == 0 {
		samples = s.cfg.Samples
	}
	sd := s.cfg.Seed
	if seed != nil {
		sd = *seed
	}
	return s.ranker.Compare(snap, a, b, samples, sd)
}

// Summary reports counts and the top techniques per ranking.
func (s *RankingService) Summary(ctx context.Context, topK int) (*domain.Summary, error) {
	snap, err := s.beliefs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	return s.ranker.Summarize(snap, topK)
}
