// Package evidence gathers evidence records from external producers and
// hands them to the belief store as one ordered batch.
package evidence

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source produces evidence. Fetch may block on I/O and should honor ctx.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Evidence, error)
}

// FileSource reads evidence from a JSON file: a bare array, an object with an
// "evidence" array, or one record per line when the extension is .jsonl or
// .ndjson.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Name() string { return f.Path }

func (f *FileSource) Fetch(ctx context.Context) ([]domain.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".jsonl", ".ndjson":
		return decodeLines(raw)
	default:
		return Decode(raw)
	}
}

type envelope struct {
	Evidence []domain.Evidence `json:"evidence"`
}

// Decode accepts either a JSON array of records or {"evidence": [...]}.
func Decode(raw []byte) ([]domain.Evidence, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []domain.Evidence
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode evidence array: %w", err)
		}
		return list, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode evidence object: %w", err)
	}
	return env.Evidence, nil
}

func decodeLines(raw []byte) ([]domain.Evidence, error) {
	var out []domain.Evidence
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var e domain.Evidence
		if err := json.Unmarshal(text, &e); err != nil {
			return nil, fmt.Errorf("decode evidence line %d: %w", line, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan evidence lines: %w", err)
	}
	return out, nil
}

// StaticSource serves a fixed list, for seeding and tests.
type StaticSource struct {
	Label   string
	Records []domain.Evidence
}

func (s StaticSource) Name() string { return s.Label }

func (s StaticSource) Fetch(ctx context.Context) ([]domain.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Evidence, len(s.Records))
	copy(out, s.Records)
	return out, nil
}

// Collect fetches every source concurrently and concatenates the results in
// argument order. Any failing source fails the whole collection, so a
// partial batch never reaches the store.
func Collect(ctx context.Context, logger *zap.Logger, sources ...Source) ([]domain.Evidence, error) {
	results := make([][]domain.Evidence, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			records, err := src.Fetch(gctx)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name(), err)
			}
			results[i] = records
			logger.Debug("evidence fetched",
				zap.String("source", src.Name()),
				zap.Int("records", len(records)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]domain.Evidence, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
