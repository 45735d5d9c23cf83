package domain

import "context"

// SnapshotStore persists belief snapshots. Latest and Get return
// store.ErrNotFound when there is nothing to read.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) (SnapshotRef, error)
	Latest(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context, limit int) ([]SnapshotRef, error)
}
