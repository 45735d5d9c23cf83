package domain

import (
	"fmt"
	"time"
)

// Snapshot is the unit of persistence: every tracked technique's belief plus
// the time the mapping was last changed.
type Snapshot struct {
	TakenAt time.Time              `json:"taken_at"`
	Beliefs map[string]BeliefState `json:"beliefs"`
}

// SnapshotRef identifies a persisted snapshot without loading its beliefs.
type SnapshotRef struct {
	ID         string    `json:"id"`
	TakenAt    time.Time `json:"taken_at"`
	Techniques int       `json:"techniques"`
}

// Validate rejects malformed snapshots at the boundary so NaN or missing
// parameters never reach ranking.
func (s Snapshot) Validate() error {
	if s.TakenAt.IsZero() {
		return fmt.Errorf("%w: taken_at is required", ErrInvalidSnapshot)
	}
	for name, b := range s.Beliefs {
		if name == "" || NormalizeTechnique(name) != name {
			return fmt.Errorf("%w: technique key %q is not normalized", ErrInvalidSnapshot, name)
		}
		if err := b.Check(); err != nil {
			return fmt.Errorf("%w: technique %q: %v", ErrInvalidSnapshot, name, err)
		}
	}
	return nil
}

// Equal reports structural equality on the timestamp and every technique's state.
func (s Snapshot) Equal(o Snapshot) bool {
	if !s.TakenAt.Equal(o.TakenAt) || len(s.Beliefs) != len(o.Beliefs) {
		return false
	}
	for name, a := range s.Beliefs {
		b, ok := o.Beliefs[name]
		if !ok {
			return false
		}
		if a.Alpha != b.Alpha || a.Beta != b.Beta || a.EvidenceCount != b.EvidenceCount || !a.LastUpdated.Equal(b.LastUpdated) {
			return false
		}
	}
	return true
}
