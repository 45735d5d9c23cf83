package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"go.uber.org/zap"
)

const (
	snapshotPrefix     = "beliefs_"
	snapshotExt        = ".json"
	snapshotTimeLayout = "20060102_150405.000000000"
	dirMode            = 0o755
	fileMode           = 0o644
)

// FileSnapshotStore keeps one JSON file per snapshot in a directory. File
// names embed the UTC write time and strictly increase in save order, so the
// lexically greatest name is the most recently saved snapshot regardless of
// the taken_at it carries.
type FileSnapshotStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFileSnapshotStore creates dir if needed.
func NewFileSnapshotStore(dir string, logger *zap.Logger) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileSnapshotStore{dir: dir, logger: logger, now: time.Now}, nil
}

type fileMetadata struct {
	TotalTechniques int       `json:"total_techniques"`
	TotalEvidence   int       `json:"total_evidence"`
	SavedAt         time.Time `json:"saved_at"`
}

type fileSnapshot struct {
	domain.Snapshot
	Metadata fileMetadata `json:"metadata"`
}

// Save writes snap atomically under a name later than every existing snapshot.
func (s *FileSnapshotStore) Save(ctx context.Context, snap domain.Snapshot) (domain.SnapshotRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.SnapshotRef{}, err
	}
	if err := snap.Validate(); err != nil {
		return domain.SnapshotRef{}, err
	}
	if snap.Beliefs == nil {
		snap.Beliefs = map[string]domain.BeliefState{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.snapshotFiles()
	if err != nil {
		return domain.SnapshotRef{}, err
	}
	savedAt := s.now().UTC()
	if len(names) > 0 {
		if last, ok := parseSnapshotName(names[len(names)-1]); ok && !savedAt.After(last) {
			savedAt = last.Add(time.Nanosecond)
		}
	}

	total := 0
	for _, b := range snap.Beliefs {
		total += b.EvidenceCount
	}
	payload, err := json.MarshalIndent(fileSnapshot{
		Snapshot: snap,
		Metadata: fileMetadata{
			TotalTechniques: len(snap.Beliefs),
			TotalEvidence:   total,
			SavedAt:         savedAt,
		},
	}, "", "  ")
	if err != nil {
		return domain.SnapshotRef{}, fmt.Errorf("encode snapshot: %w", err)
	}

	name := snapshotName(savedAt)
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name)
	if err != nil {
		return domain.SnapshotRef{}, fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return domain.SnapshotRef{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return domain.SnapshotRef{}, fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		_ = os.Remove(tmp.Name())
		return domain.SnapshotRef{}, fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return domain.SnapshotRef{}, fmt.Errorf("commit snapshot: %w", err)
	}

	s.logger.Debug("snapshot written",
		zap.String("path", path),
		zap.Int("techniques", len(snap.Beliefs)))

	return domain.SnapshotRef{ID: name, TakenAt: snap.TakenAt, Techniques: len(snap.Beliefs)}, nil
}

// Latest returns the most recently saved snapshot or ErrNotFound.
func (s *FileSnapshotStore) Latest(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	names, err := s.snapshotFiles()
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(names) == 0 {
		return domain.Snapshot{}, ErrNotFound
	}
	return s.read(names[len(names)-1])
}

// Get reads a snapshot by the file name List reports as its ID.
func (s *FileSnapshotStore) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	if filepath.Base(id) != id || !isSnapshotFile(id) {
		return domain.Snapshot{}, ErrNotFound
	}
	snap, err := s.read(id)
	if os.IsNotExist(err) {
		return domain.Snapshot{}, ErrNotFound
	}
	return snap, err
}

// List returns the newest snapshots first.
func (s *FileSnapshotStore) List(ctx context.Context, limit int) ([]domain.SnapshotRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := s.snapshotFiles()
	if err != nil {
		return nil, err
	}

	var refs []domain.SnapshotRef
	for i := len(names) - 1; i >= 0; i-- {
		if limit > 0 && len(refs) >= limit {
			break
		}
		snap, err := s.read(names[i])
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot", zap.String("file", names[i]), zap.Error(err))
			continue
		}
		refs = append(refs, domain.SnapshotRef{ID: names[i], TakenAt: snap.TakenAt, Techniques: len(snap.Beliefs)})
	}
	return refs, nil
}

func (s *FileSnapshotStore) snapshotFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isSnapshotFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func snapshotName(savedAt time.Time) string {
	return snapshotPrefix + strings.Replace(savedAt.Format(snapshotTimeLayout), ".", "_", 1) + snapshotExt
}

func parseSnapshotName(name string) (time.Time, bool) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotExt)
	i := strings.LastIndex(stamp, "_")
	if i < 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(snapshotTimeLayout, stamp[:i]+"."+stamp[i+1:])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isSnapshotFile(name string) bool {
	return strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, snapshotExt)
}

func (s *FileSnapshotStore) read(name string) (domain.Snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return domain.Snapshot{}, err
	}
	return DecodeSnapshot(raw)
}

// DecodeSnapshot parses and validates a JSON snapshot. Unknown fields are
// rejected so a misspelled parameter cannot silently load as zero.
func DecodeSnapshot(raw []byte) (domain.Snapshot, error) {
	var fs fileSnapshot
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fs); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	if err := fs.Snapshot.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	if fs.Snapshot.Beliefs == nil {
		fs.Snapshot.Beliefs = map[string]domain.BeliefState{}
	}
	return fs.Snapshot, nil
}
