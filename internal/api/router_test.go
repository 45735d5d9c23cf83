package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/Harshitk-cp/rlbelief/internal/service"
	"github.com/Harshitk-cp/rlbelief/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

type testServer struct {
	app     *App
	beliefs *service.BeliefService
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	fs, err := store.NewFileSnapshotStore(filepath.Join(t.TempDir(), "beliefs"), zap.NewNop())
	require.NoError(t, err)

	beliefs := service.NewBeliefService(fs, zap.NewNop())
	clock := epoch
	beliefs.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	rankings := service.NewRankingService(beliefs, service.DefaultRankingConfig())

	return &testServer{
		app:     NewApp(t.Context(), beliefs, rankings, zap.NewNop(), opts),
		beliefs: beliefs,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seedEvidence(t *testing.T, s *testServer) {
	t.Helper()
	var batch []domain.Evidence
	for i := 0; i < 40; i++ {
		batch = append(batch, domain.Evidence{Technique: "PPO", Value: 0.95, Confidence: 1, SourceKind: domain.SourcePaper})
		batch = append(batch, domain.Evidence{Technique: "DQN", Value: 0.1, Confidence: 1, SourceKind: domain.SourceRepository})
	}
	batch = append(batch, domain.Evidence{Technique: "Dreamer", Value: 0.8, Confidence: 0.5})
	rec := s.do(t, http.MethodPost, "/v1/evidence", map[string]any{"evidence": batch})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "version")

	failing := newTestServer(t, Options{Ping: func(context.Context) error { return errors.New("db down") }})
	rec = failing.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIngestAndRank(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.do(t, http.MethodPost, "/v1/evidence", `[{"technique":"Soft  Actor-Critic","value":1,"confidence":1,"source_kind":"paper"}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), res["applied"])
	assert.Equal(t, []any{"soft actor-critic"}, res["new_techniques"])
	assert.NotEmpty(t, res["snapshot_id"])

	seedEvidence(t, s)

	rec = s.do(t, http.MethodGet, "/v1/rankings/effective", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ranked := decode[struct {
		Rankings []domain.RankedBelief `json:"rankings"`
	}](t, rec)
	require.NotEmpty(t, ranked.Rankings)
	assert.Equal(t, "ppo", ranked.Rankings[0].Technique)

	rec = s.do(t, http.MethodGet, "/v1/rankings/overhyped", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	over := decode[struct {
		Rankings []domain.RankedBelief `json:"rankings"`
	}](t, rec)
	require.Len(t, over.Rankings, 1)
	assert.Equal(t, "dqn", over.Rankings[0].Technique)

	rec = s.do(t, http.MethodGet, "/v1/rankings/uncertain?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	unc := decode[struct {
		Rankings []domain.RankedBelief `json:"rankings"`
	}](t, rec)
	require.Len(t, unc.Rankings, 1)
	assert.Equal(t, "dreamer", unc.Rankings[0].Technique)

	rec = s.do(t, http.MethodGet, "/v1/beliefs/soft%20actor-critic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	row := decode[domain.RankedBelief](t, rec)
	assert.Equal(t, 3.0, row.Alpha)
	assert.Equal(t, 2.0, row.Beta)

	rec = s.do(t, http.MethodGet, "/v1/beliefs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode[map[string]any](t, rec)["count"])
}

func TestIngestRejectsInvalidBatch(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(t, http.MethodPost, "/v1/evidence", `{"evidence":[{"technique":"ppo","value":0.9,"confidence":1},{"technique":"sac","value":1.2,"confidence":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "index 1")

	rec = s.do(t, http.MethodGet, "/v1/beliefs/ppo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "rejected batch must not register techniques")

	rec = s.do(t, http.MethodPost, "/v1/evidence", `{"evidence":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/evidence", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t, Options{})
	seedEvidence(t, s)

	rec := s.do(t, http.MethodGet, "/v1/compare?a=PPO&b=dqn&samples=2000&seed=9", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[domain.Comparison](t, rec)
	assert.Greater(t, first.ProbABetter, 0.99)
	assert.Equal(t, 2000, first.Samples)

	rec = s.do(t, http.MethodGet, "/v1/compare?a=PPO&b=dqn&samples=2000&seed=9", nil)
	assert.Equal(t, first, decode[domain.Comparison](t, rec))

	tests := []struct {
		query string
		want  int
	}{
		{"a=ppo", http.StatusBadRequest},
		{"a=ppo&b=a3c", http.StatusNotFound},
		{"a=ppo&b=dqn&samples=-1", http.StatusBadRequest},
		{"a=ppo&b=dqn&samples=2000000", http.StatusBadRequest},
		{"a=ppo&b=dqn&seed=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodGet, "/v1/compare?"+tt.query, nil)
		assert.Equal(t, tt.want, rec.Code, tt.query)
	}
}

func TestRankingQueryValidation(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{
		"/v1/rankings/effective?min_certainty=2",
		"/v1/rankings/overhyped?max_effectiveness=abc",
		"/v1/rankings/uncertain?limit=-3",
		"/v1/summary?top_k=x",
	} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, Options{})
	seedEvidence(t, s)

	rec := s.do(t, http.MethodGet, "/v1/summary?top_k=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[domain.Summary](t, rec)
	assert.Equal(t, 3, sum.TotalTechniques)
	assert.Equal(t, 81, sum.TotalEvidence)
	assert.Equal(t, []string{"dqn"}, sum.MostOverhyped)
}

func TestSnapshotExportImport(t *testing.T) {
	s := newTestServer(t, Options{})
	seedEvidence(t, s)

	rec := s.do(t, http.MethodGet, "/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	other := newTestServer(t, Options{})
	rec = other.do(t, http.MethodPut, "/v1/snapshot", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	want, err := s.beliefs.Snapshot(t.Context())
	require.NoError(t, err)
	got, err := other.beliefs.Snapshot(t.Context())
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	rec = other.do(t, http.MethodPut, "/v1/snapshot", `{"taken_at":"2026-10-01T08:00:00Z","beliefs":{"ppo":{"alpha":"NaN","beta":2}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = other.do(t, http.MethodGet, "/v1/snapshots?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[map[string][]domain.SnapshotRef](t, rec)
	assert.Len(t, hist["snapshots"], 1)
}

func TestWritesRequireAPIKey(t *testing.T) {
	s := newTestServer(t, Options{APIKey: "k3y"})
	body := `[{"technique":"ppo","value":1,"confidence":1}]`

	rec := s.do(t, http.MethodPost, "/v1/evidence", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/evidence", body, "Authorization", "Bearer k3y")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/beliefs/ppo", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "reads stay open")
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, Options{})
	seedEvidence(t, s)
	s.do(t, http.MethodGet, "/v1/beliefs/missing", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), m["request_count"])
	assert.Equal(t, float64(1), m["client_error_count"])
	assert.Equal(t, float64(3), m["techniques"])
	assert.Equal(t, float64(81), m["evidence_applied"])
}
