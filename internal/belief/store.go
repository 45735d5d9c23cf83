// Package belief holds the belief-tracking core: a technique -> Beta
// posterior mapping, its batch update procedure, and ranked views over
// snapshots of it. Nothing here logs, blocks or locks; callers serialize writers.
package belief

import (
	"sort"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
)

// Store maps normalized technique names to their beliefs. A technique, once
// tracked, is never removed.
type Store struct {
	beliefs map[string]domain.BeliefState
	takenAt time.Time
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp updates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		beliefs: make(map[string]domain.BeliefState),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.takenAt = s.now()
	return s
}

// Load builds a store from a validated snapshot.
func Load(snap domain.Snapshot, opts ...Option) (*Store, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	s := NewStore(opts...)
	for name, b := range snap.Beliefs {
		s.beliefs[name] = b
	}
	s.takenAt = snap.TakenAt
	return s, nil
}

// Save returns a snapshot of the current mapping. The snapshot shares no
// memory with the store.
func (s *Store) Save() domain.Snapshot {
	beliefs := make(map[string]domain.BeliefState, len(s.beliefs))
	for name, b := range s.beliefs {
		beliefs[name] = b
	}
	return domain.Snapshot{TakenAt: s.takenAt, Beliefs: beliefs}
}

// Clone returns an independent copy, used to stage a batch before committing it.
func (s *Store) Clone() *Store {
	c := &Store{
		beliefs: make(map[string]domain.BeliefState, len(s.beliefs)),
		takenAt: s.takenAt,
		now:     s.now,
	}
	for name, b := range s.beliefs {
		c.beliefs[name] = b
	}
	return c
}

// Get returns the belief for technique or domain.ErrUnknownTechnique.
func (s *Store) Get(technique string) (domain.BeliefState, error) {
	b, ok := s.beliefs[domain.NormalizeTechnique(technique)]
	if !ok {
		return domain.BeliefState{}, domain.ErrUnknownTechnique
	}
	return b, nil
}

// Len is the number of tracked techniques.
func (s *Store) Len() int {
	return len(s.beliefs)
}

// TakenAt is the time of the last change to the mapping.
func (s *Store) TakenAt() time.Time {
	return s.takenAt
}

// Techniques returns tracked technique names in lexical order.
func (s *Store) Techniques() []string {
	names := make([]string, 0, len(s.beliefs))
	for name := range s.beliefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BatchResult describes what one UpdateBatch call changed.
type BatchResult struct {
	Applied       int      `json:"applied"`
	Skipped       int      `json:"skipped"`
	Touched       []string `json:"touched"`
	NewTechniques []string `json:"new_techniques"`
}

// UpdateBatch validates the whole batch, then applies every record in order.
// A batch that fails validation leaves the store untouched. Records with zero
// confidence register their technique at the prior but change no parameters.
func (s *Store) UpdateBatch(batch []domain.Evidence) (*BatchResult, error) {
	if err := domain.ValidateBatch(batch); err != nil {
		return nil, err
	}

	result := &BatchResult{}
	if len(batch) == 0 {
		return result, nil
	}

	now := s.now()
	touched := make(map[string]bool)
	for _, ev := range batch {
		ev = ev.Normalized()
		b, ok := s.beliefs[ev.Technique]
		if !ok {
			b = domain.NewBeliefState(now)
			result.NewTechniques = append(result.NewTechniques, ev.Technique)
		}
		if ev.Confidence == 0 {
			result.Skipped++
			s.beliefs[ev.Technique] = b
			continue
		}
		b = b.Apply(ev.Value, ev.Confidence)
		b.LastUpdated = now
		s.beliefs[ev.Technique] = b
		result.Applied++
		touched[ev.Technique] = true
	}

	for name := range touched {
		result.Touched = append(result.Touched, name)
	}
	sort.Strings(result.Touched)
	if result.Applied > 0 || len(result.NewTechniques) > 0 {
		s.takenAt = now
	}
	return result, nil
}
