package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS belief_snapshots (
	id         UUID PRIMARY KEY,
	seq        BIGSERIAL,
	taken_at   TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE belief_snapshots ADD COLUMN IF NOT EXISTS seq BIGSERIAL;

DROP INDEX IF EXISTS belief_snapshots_taken_at_idx;

CREATE UNIQUE INDEX IF NOT EXISTS belief_snapshots_seq_idx
	ON belief_snapshots (seq DESC);

CREATE TABLE IF NOT EXISTS belief_snapshot_entries (
	snapshot_id    UUID NOT NULL REFERENCES belief_snapshots (id) ON DELETE CASCADE,
	technique      TEXT NOT NULL,
	alpha          DOUBLE PRECISION NOT NULL,
	beta           DOUBLE PRECISION NOT NULL,
	evidence_count INTEGER NOT NULL,
	last_updated   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (snapshot_id, technique)
);
`

// PGSnapshotStore persists snapshots as a header row plus one row per technique.
// Latest and List order by seq, the insert order, so an imported snapshot with
// an old taken_at still becomes the latest.
type PGSnapshotStore struct {
	db *pgxpool.Pool
}

// NewPGSnapshotStore wraps an open pool. Call EnsureSchema before first use.
func NewPGSnapshotStore(db *pgxpool.Pool) *PGSnapshotStore {
	return &PGSnapshotStore{db: db}
}

// EnsureSchema creates the snapshot tables if they do not exist.
func (s *PGSnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// Save writes the header and every belief in one transaction.
func (s *PGSnapshotStore) Save(ctx context.Context, snap domain.Snapshot) (domain.SnapshotRef, error) {
	if err := snap.Validate(); err != nil {
		return domain.SnapshotRef{}, err
	}

	id := uuid.New()
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.SnapshotRef{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO belief_snapshots (id, taken_at) VALUES ($1, $2)`,
		id, snap.TakenAt,
	); err != nil {
		return domain.SnapshotRef{}, fmt.Errorf("insert snapshot: %w", err)
	}

	rows := make([][]any, 0, len(snap.Beliefs))
	for name, b := range snap.Beliefs {
		rows = append(rows, []any{id, name, b.Alpha, b.Beta, b.EvidenceCount, b.LastUpdated})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"belief_snapshot_entries"},
			[]string{"snapshot_id", "technique", "alpha", "beta", "evidence_count", "last_updated"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return domain.SnapshotRef{}, fmt.Errorf("copy snapshot entries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.SnapshotRef{}, err
	}
	return domain.SnapshotRef{ID: id.String(), TakenAt: snap.TakenAt, Techniques: len(snap.Beliefs)}, nil
}

// Latest returns the most recently saved snapshot or ErrNotFound.
func (s *PGSnapshotStore) Latest(ctx context.Context) (domain.Snapshot, error) {
	var (
		id      uuid.UUID
		takenAt time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, taken_at FROM belief_snapshots
		 ORDER BY seq DESC
		 LIMIT 1`,
	).Scan(&id, &takenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, err
	}
	return s.load(ctx, id, takenAt)
}

// Get loads a snapshot by its UUID.
func (s *PGSnapshotStore) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.Snapshot{}, ErrNotFound
	}
	var takenAt time.Time
	err = s.db.QueryRow(ctx,
		`SELECT taken_at FROM belief_snapshots WHERE id = $1`, uid,
	).Scan(&takenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, err
	}
	return s.load(ctx, uid, takenAt)
}

// List returns the most recently saved snapshots first, 50 by default.
func (s *PGSnapshotStore) List(ctx context.Context, limit int) ([]domain.SnapshotRef, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT s.id, s.taken_at, COUNT(e.technique)
		 FROM belief_snapshots s
		 LEFT JOIN belief_snapshot_entries e ON e.snapshot_id = s.id
		 GROUP BY s.id, s.taken_at, s.seq
		 ORDER BY s.seq DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.SnapshotRef
	for rows.Next() {
		var (
			id  uuid.UUID
			ref domain.SnapshotRef
		)
		if err := rows.Scan(&id, &ref.TakenAt, &ref.Techniques); err != nil {
			return nil, err
		}
		ref.ID = id.String()
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *PGSnapshotStore) load(ctx context.Context, id uuid.UUID, takenAt time.Time) (domain.Snapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT technique, alpha, beta, evidence_count, last_updated
		 FROM belief_snapshot_entries WHERE snapshot_id = $1`,
		id,
	)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer rows.Close()

	snap := domain.Snapshot{TakenAt: takenAt.UTC(), Beliefs: map[string]domain.BeliefState{}}
	for rows.Next() {
		var (
			name string
			b    domain.BeliefState
		)
		if err := rows.Scan(&name, &b.Alpha, &b.Beta, &b.EvidenceCount, &b.LastUpdated); err != nil {
			return domain.Snapshot{}, err
		}
		b.LastUpdated = b.LastUpdated.UTC()
		snap.Beliefs[name] = b
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}
