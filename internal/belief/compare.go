package belief

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultCompareSamples matches the draw count the comparison has always used.
	DefaultCompareSamples = 10000
	MaxCompareSamples     = 1_000_000

	// pcgStream is the fixed second PCG word; the caller's seed picks the sequence.
	pcgStream = 0x9e3779b97f4a7c15

	differenceLowPercentile  = 5
	differenceHighPercentile = 95
)

var ErrInvalidSamples = errors.New("sample count must be between 1 and 1000000")

// Compare estimates P(effectiveness_a > effectiveness_b) by drawing samples
// independent pairs from the two posteriors. The draws come from a PCG source
// seeded only by seed, so equal inputs give equal outputs. The estimate's
// standard error shrinks as 1/sqrt(samples).
func (r Ranker) Compare(snap domain.Snapshot, a, b string, samples int, seed uint64) (*domain.Comparison, error) {
	if samples <= 0 || samples > MaxCompareSamples {
		return nil, ErrInvalidSamples
	}

	nameA, nameB := domain.NormalizeTechnique(a), domain.NormalizeTechnique(b)
	beliefA, ok := snap.Beliefs[nameA]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTechnique, a)
	}
	beliefB, ok := snap.Beliefs[nameB]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTechnique, b)
	}

	src := rand.NewPCG(seed, pcgStream)
	distA := distuv.Beta{Alpha: beliefA.Alpha, Beta: beliefA.Beta, Src: src}
	distB := distuv.Beta{Alpha: beliefB.Alpha, Beta: beliefB.Beta, Src: src}

	diffs := make([]float64, samples)
	var aWins, bWins int
	for i := range diffs {
		x, y := distA.Rand(), distB.Rand()
		switch {
		case x > y:
			aWins++
		case y > x:
			bWins++
		}
		diffs[i] = x - y
	}

	meanDiff, err := stats.Mean(diffs)
	if err != nil {
		return nil, err
	}
	low, err := stats.PercentileNearestRank(diffs, differenceLowPercentile)
	if err != nil {
		return nil, err
	}
	high, err := stats.PercentileNearestRank(diffs, differenceHighPercentile)
	if err != nil {
		return nil, err
	}

	n := float64(samples)
	pA := float64(aWins) / n
	return &domain.Comparison{
		TechniqueA:     nameA,
		TechniqueB:     nameB,
		EffectivenessA: beliefA.Effectiveness(),
		EffectivenessB: beliefB.Effectiveness(),
		CertaintyA:     beliefA.Certainty(),
		CertaintyB:     beliefB.Certainty(),
		ProbABetter:    pA,
		ProbBBetter:    float64(bWins) / n,
		StdError:       math.Sqrt(pA * (1 - pA) / n),
		MeanDifference: meanDiff,
		DifferenceLow:  low,
		DifferenceHigh: high,
		Samples:        samples,
		Seed:           seed,
	}, nil
}
