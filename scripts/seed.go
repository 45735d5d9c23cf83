// Seed script for loading demo evidence into the configured snapshot backend.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/bootstrap"
	"github.com/Harshitk-cp/rlbelief/internal/config"
	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/Harshitk-cp/rlbelief/internal/evidence"
)

func main() {
	_ = config.Load()

	logger, err := bootstrap.NewLogger(config.LogLevel())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	backend, err := bootstrap.OpenBackend(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to open snapshot backend: %v", err)
	}
	defer backend.Close()

	fmt.Printf("Using %s snapshot backend\n", backend.Kind)

	beliefs, rankings := bootstrap.Services(backend, logger)

	now := time.Now().UTC()
	findings := []struct {
		technique string
		kind      domain.SourceKind
		source    string
		value     float64
		conf      float64
		repeat    int
	}{
		{"PPO", domain.SourcePaper, "Proximal Policy Optimization Algorithms", 0.85, 0.9, 12},
		{"PPO", domain.SourceRepository, "openai/baselines", 0.8, 0.6, 8},
		{"SAC", domain.SourcePaper, "Soft Actor-Critic", 0.9, 0.85, 6},
		{"DQN", domain.SourcePaper, "Human-level control through deep RL", 0.3, 0.8, 15},
		{"DQN", domain.SourceRepository, "google/dopamine", 0.25, 0.7, 10},
		{"Decision Transformer", domain.SourcePaper, "Decision Transformer", 0.4, 0.9, 20},
		{"Dreamer", domain.SourcePaper, "Mastering Diverse Domains through World Models", 0.85, 0.5, 2},
		{"Go-Explore", domain.SourceRepository, "uber-research/go-explore", 0.7, 0.3, 1},
		{"MuZero", domain.SourceOther, "conference talk", 0.5, 0.2, 1},
	}

	var records []domain.Evidence
	for _, f := range findings {
		for i := 0; i < f.repeat; i++ {
			records = append(records, domain.Evidence{
				Technique:  f.technique,
				Value:      f.value,
				Confidence: f.conf,
				SourceKind: f.kind,
				Source:     f.source,
				ObservedAt: now,
			})
		}
	}

	batch, err := evidence.Collect(ctx, logger, evidence.StaticSource{Label: "seed", Records: records})
	if err != nil {
		log.Fatalf("Failed to collect evidence: %v", err)
	}

	res, err := beliefs.Apply(ctx, batch)
	if err != nil {
		log.Fatalf("Failed to apply evidence: %v", err)
	}
	fmt.Printf("Applied %d records (%d new techniques), snapshot %s\n", res.Applied, len(res.NewTechniques), res.Snapshot)

	sum, err := rankings.Summary(ctx, 3)
	if err != nil {
		log.Fatalf("Failed to summarize: %v", err)
	}
	fmt.Printf("Most promising: %v\n", sum.MostPromising)
	fmt.Printf("Most overhyped: %v\n", sum.MostOverhyped)
	fmt.Printf("Needs evidence: %v\n", sum.MostUncertain)

	fmt.Println("\nSeed complete.")
}
