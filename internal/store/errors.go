package store

import (
	"errors"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
)

var ErrNotFound = errors.New("not found")

var (
	_ domain.SnapshotStore = (*PGSnapshotStore)(nil)
	_ domain.SnapshotStore = (*FileSnapshotStore)(nil)
)
