package evidence

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

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileSource_Formats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want []string
	}{
		{
			name: "array",
			file: "ev.json",
			body: `[{"technique":"PPO","value":0.9,"confidence":1,"source_kind":"paper"},{"technique":"dqn","value":0.2,"confidence":0.5}]`,
			want: []string{"PPO", "dqn"},
		},
		{
			name: "envelope",
			file: "ev.json",
			body: `{"evidence":[{"technique":"sac","value":0.7,"confidence":0.8,"source_kind":"repository"}]}`,
			want: []string{"sac"},
		},
		{
			name: "json lines",
			file: "ev.jsonl",
			body: "{\"technique\":\"a2c\",\"value\":0.6,\"confidence\":0.3}\n\n{\"technique\":\"td3\",\"value\":0.4,\"confidence\":0.9}\n",
			want: []string{"a2c", "td3"},
		},
		{
			name: "empty",
			file: "ev.json",
			body: "  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewFileSource(writeFile(t, tt.file, tt.body))
			got, err := src.Fetch(context.Background())
			require.NoError(t, err)

			var names []string
			for _, e := range got {
				names = append(names, e.Technique)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFileSource_Errors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	assert.Error(t, err)

	_, err = NewFileSource(writeFile(t, "bad.jsonl", "{\"technique\":\"ok\"}\nnot json\n")).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = NewFileSource(writeFile(t, "bad.json", `{"evidence": 3}`)).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileSource_ObservedAt(t *testing.T) {
	src := NewFileSource(writeFile(t, "ev.json", `[{"technique":"ppo","value":1,"confidence":1,"observed_at":"2026-09-30T12:00:00Z","source":"Schulman et al."}]`))
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ObservedAt.Equal(time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Schulman et al.", got[0].Source)
}

type slowSource struct {
	name  string
	delay time.Duration
	out   []domain.Evidence
	err   error
}

func (s slowSource) Name() string { return s.name }

func (s slowSource) Fetch(ctx context.Context) ([]domain.Evidence, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.out, s.err
}

func TestCollect_PreservesSourceOrder(t *testing.T) {
	first := slowSource{name: "papers", delay: 30 * time.Millisecond, out: []domain.Evidence{{Technique: "ppo"}, {Technique: "sac"}}}
	second := slowSource{name: "repos", out: []domain.Evidence{{Technique: "dqn"}}}
	third := StaticSource{Label: "static", Records: []domain.Evidence{{Technique: "td3"}}}

	got, err := Collect(context.Background(), zap.NewNop(), first, second, third)
	require.NoError(t, err)

	var names []string
	for _, e := range got {
		names = append(names, e.Technique)
	}
	assert.Equal(t, []string{"ppo", "sac", "dqn", "td3"}, names)
}

func TestCollect_FailureDiscardsEverything(t *testing.T) {
	boom := errors.New("rate limited")
	ok := StaticSource{Label: "static", Records: []domain.Evidence{{Technique: "ppo"}}}
	bad := slowSource{name: "llm", err: boom}
	slow := slowSource{name: "repos", delay: time.Minute}

	got, err := Collect(context.Background(), zap.NewNop(), ok, bad, slow)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "llm")
	assert.Nil(t, got)
}

func TestCollect_NoSources(t *testing.T) {
	got, err := Collect(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStaticSource_CopiesRecords(t *testing.T) {
	src := StaticSource{Label: "s", Records: []domain.Evidence{{Technique: "ppo"}}}
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	got[0].Technique = "changed"
	assert.Equal(t, "ppo", src.Records[0].Technique)
}
