package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func sampleSnapshot(at time.Time) domain.Snapshot {
	return domain.Snapshot{
		TakenAt: at,
		Beliefs: map[string]domain.BeliefState{
			"ppo": {Alpha: 12.5, Beta: 4.25, EvidenceCount: 3, LastUpdated: at},
			"dqn": {Alpha: 2, Beta: 7.1, EvidenceCount: 1, LastUpdated: at.Add(-time.Hour)},
		},
	}
}

func newFileStore(t *testing.T) (*FileSnapshotStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "beliefs")
	s, err := NewFileSnapshotStore(dir, zap.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return epoch }
	return s, dir
}

func TestFileSnapshotStore_LatestEmpty(t *testing.T) {
	s, _ := newFileStore(t)

	_, err := s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()
	snap := sampleSnapshot(epoch)

	ref, err := s.Save(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "beliefs_20261001_080000_000000000.json", ref.ID)
	assert.Equal(t, 2, ref.Techniques)
	assert.FileExists(t, filepath.Join(dir, ref.ID))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Equal(got), "round trip changed the snapshot: %+v", got)

	byID, err := s.Get(ctx, ref.ID)
	require.NoError(t, err)
	assert.True(t, snap.Equal(byID))
}

func TestFileSnapshotStore_LastSavedWins(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	for _, at := range []time.Time{epoch.Add(time.Hour), epoch, epoch.Add(30 * time.Minute)} {
		_, err := s.Save(ctx, sampleSnapshot(at))
		require.NoError(t, err)
	}

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, got.TakenAt.Equal(epoch.Add(30*time.Minute)), "latest is the last saved, not the newest taken_at")

	refs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.True(t, refs[0].TakenAt.Equal(epoch.Add(30*time.Minute)))
	assert.True(t, refs[1].TakenAt.Equal(epoch))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileSnapshotStore_SameTakenAtKeepsHistory(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, sampleSnapshot(epoch))
	require.NoError(t, err)
	replaced := sampleSnapshot(epoch)
	replaced.Beliefs = map[string]domain.BeliefState{"sac": {Alpha: 5, Beta: 2, EvidenceCount: 2, LastUpdated: epoch}}
	second, err := s.Save(ctx, replaced)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.ID, first.ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, replaced.Equal(got))

	older, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, sampleSnapshot(epoch).Equal(older))
}

func TestFileSnapshotStore_ClockBehindExistingFiles(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	ahead := filepath.Join(dir, snapshotName(epoch.Add(24*time.Hour)))
	require.NoError(t, os.WriteFile(ahead, []byte(`{"taken_at":"2026-10-02T08:00:00Z","beliefs":{}}`), 0o644))

	ref, err := s.Save(ctx, sampleSnapshot(epoch))
	require.NoError(t, err)
	assert.Equal(t, snapshotName(epoch.Add(24*time.Hour+time.Nanosecond)), ref.ID)

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, sampleSnapshot(epoch).Equal(got))
}

func TestFileSnapshotStore_EmptySnapshot(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, domain.Snapshot{TakenAt: epoch})
	require.NoError(t, err)

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got.Beliefs)
	assert.Empty(t, got.Beliefs)
}

func TestFileSnapshotStore_RejectsInvalid(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	bad := sampleSnapshot(epoch)
	bad.Beliefs["PPO"] = domain.BeliefState{Alpha: 3, Beta: 3}
	_, err := s.Save(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "invalid snapshot must not be written")
}

func TestFileSnapshotStore_SkipsForeignFiles(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "../notes.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "beliefs_19990101_000000_000000000.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSnapshotStore_CorruptLatest(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, sampleSnapshot(epoch))
	require.NoError(t, err)
	corrupt := filepath.Join(dir, "beliefs_20990101_000000_000000000.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"taken_at":`), 0o644))

	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	refs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, refs, 1, "unreadable files are skipped by List")
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{
			name: "valid",
			raw:  `{"taken_at":"2026-10-01T08:00:00Z","beliefs":{"ppo":{"alpha":3,"beta":2,"evidence_count":1,"last_updated":"2026-10-01T08:00:00Z"}}}`,
			ok:   true,
		},
		{
			name: "with metadata",
			raw:  `{"taken_at":"2026-10-01T08:00:00Z","beliefs":{},"metadata":{"total_techniques":0,"total_evidence":0,"saved_at":"2026-10-01T08:00:00Z"}}`,
			ok:   true,
		},
		{
			name: "unknown field",
			raw:  `{"taken_at":"2026-10-01T08:00:00Z","beliefs":{"ppo":{"alpha":3,"betta":2}}}`,
		},
		{
			name: "missing taken_at",
			raw:  `{"beliefs":{}}`,
		},
		{
			name: "below prior",
			raw:  `{"taken_at":"2026-10-01T08:00:00Z","beliefs":{"ppo":{"alpha":1,"beta":2}}}`,
		},
		{
			name: "not json",
			raw:  `beliefs`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.raw))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidSnapshot), "got %v", err)
		})
	}
}
