package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/belief"
	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/Harshitk-cp/rlbelief/internal/store"
	"go.uber.org/zap"
)

// ApplyResult is what one evidence batch did to the persisted beliefs.
type ApplyResult struct {
	belief.BatchResult
	TakenAt  time.Time `json:"snapshot_taken_at"`
	Snapshot string    `json:"snapshot_id,omitempty"`
}

// BeliefService owns the single writer of the belief mapping. Each batch is
// applied to a copy, persisted, and only then made current, so a failed save
// leaves the in-memory beliefs as they were.
type BeliefService struct {
	snapshots domain.SnapshotStore
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current *belief.Store
}

// NewBeliefService serves beliefs persisted in ss. Nothing is read until first use.
func NewBeliefService(ss domain.SnapshotStore, logger *zap.Logger) *BeliefService {
	return &BeliefService{
		snapshots: ss,
		logger:    logger,
		// Postgres keeps microseconds; truncating keeps round trips exact.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// SetClock replaces the clock used to stamp updates. Call before first use.
func (s *BeliefService) SetClock(now func() time.Time) {
	s.now = now
}

// loadLocked returns the current store, reading the latest snapshot on first
// use. A missing snapshot starts an empty mapping. The write lock must be held.
func (s *BeliefService) loadLocked(ctx context.Context) (*belief.Store, error) {
	if s.current != nil {
		return s.current, nil
	}

	snap, err := s.snapshots.Latest(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Info("no snapshot found, starting from the prior")
		s.current = belief.NewStore(belief.WithClock(s.now))
		return s.current, nil
	case err != nil:
		return nil, err
	}

	st, err := belief.Load(snap, belief.WithClock(s.now))
	if err != nil {
		s.logger.Warn("latest snapshot rejected", zap.Error(err))
		return nil, err
	}
	s.logger.Info("snapshot loaded",
		zap.Time("taken_at", snap.TakenAt),
		zap.Int("techniques", st.Len()))
	s.current = st
	return s.current, nil
}

func (s *BeliefService) snapshot(ctx context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	if s.current != nil {
		snap := s.current.Save()
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.loadLocked(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return st.Save(), nil
}

// Snapshot returns a copy of the current beliefs.
func (s *BeliefService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return s.snapshot(ctx)
}

// Get returns one technique's belief or domain.ErrUnknownTechnique.
func (s *BeliefService) Get(ctx context.Context, technique string) (domain.BeliefState, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return domain.BeliefState{}, err
	}
	b, ok := snap.Beliefs[domain.NormalizeTechnique(technique)]
	if !ok {
		return domain.BeliefState{}, domain.ErrUnknownTechnique
	}
	return b, nil
}

// Apply validates and applies one batch, then persists the result. Nothing
// is saved when the batch changed nothing.
func (s *BeliefService) Apply(ctx context.Context, batch []domain.Evidence) (*ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	next := st.Clone()
	res, err := next.UpdateBatch(batch)
	if err != nil {
		s.logger.Warn("evidence batch rejected", zap.Int("records", len(batch)), zap.Error(err))
		return nil, err
	}

	out := &ApplyResult{BatchResult: *res, TakenAt: next.TakenAt()}
	if res.Applied == 0 && len(res.NewTechniques) == 0 {
		return out, nil
	}

	snap := next.Save()
	ref, err := s.snapshots.Save(ctx, snap)
	if err != nil {
		return nil, err
	}
	s.current = next
	out.Snapshot = ref.ID

	for _, name := range res.Touched {
		b := snap.Beliefs[name]
		s.logger.Debug("belief updated",
			zap.String("technique", name),
			zap.Float64("alpha", b.Alpha),
			zap.Float64("beta", b.Beta),
			zap.Float64("effectiveness", b.Effectiveness()))
	}
	s.logger.Info("evidence batch applied",
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped),
		zap.Int("touched", len(res.Touched)),
		zap.Strings("new_techniques", res.NewTechniques),
		zap.String("snapshot", ref.ID))
	return out, nil
}

// Import replaces the current beliefs with snap after validating it, and
// persists it as the newest snapshot.
func (s *BeliefService) Import(ctx context.Context, snap domain.Snapshot) (domain.SnapshotRef, error) {
	st, err := belief.Load(snap, belief.WithClock(s.now))
	if err != nil {
		s.logger.Warn("snapshot import rejected", zap.Error(err))
		return domain.SnapshotRef{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.snapshots.Save(ctx, st.Save())
	if err != nil {
		return domain.SnapshotRef{}, err
	}
	s.current = st
	s.logger.Info("snapshot imported",
		zap.String("snapshot", ref.ID),
		zap.Int("techniques", ref.Techniques))
	return ref, nil
}

// History lists persisted snapshots, newest first.
func (s *BeliefService) History(ctx context.Context, limit int) ([]domain.SnapshotRef, error) {
	return s.snapshots.List(ctx, limit)
}

// Reload drops the in-memory beliefs so the next call reads the latest
// snapshot again.
func (s *BeliefService) Reload() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
