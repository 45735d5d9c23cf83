package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Harshitk-cp/rlbelief/internal/belief"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "SNAPSHOT_BACKEND", "DATA_DIR", "MIN_CERTAINTY",
		"INTERVAL_COVERAGE", "COMPARE_SAMPLES", "COMPARE_SEED", "SUMMARY_TOP_K",
	} {
		t.Setenv(key, "")
	}

	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, BackendFile, SnapshotBackend())
	assert.Equal(t, "data/beliefs", DataDir())
	assert.Equal(t, belief.DefaultMinCertainty, MinCertainty())
	assert.Equal(t, 0.95, IntervalCoverage())
	assert.Equal(t, belief.DefaultCompareSamples, CompareSamples())
	assert.Equal(t, uint64(1), CompareSeed())
	assert.Equal(t, belief.DefaultSummaryTopK, SummaryTopK())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SNAPSHOT_BACKEND", "Postgres")
	t.Setenv("OVERHYPE_MIN_CERTAINTY", "0.6")
	t.Setenv("OVERHYPE_MAX_EFFECTIVENESS", "0.4")
	t.Setenv("INTERVAL_COVERAGE", "0.9")
	t.Setenv("COMPARE_SAMPLES", "2500")
	t.Setenv("COMPARE_SEED", "42")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, BackendPostgres, SnapshotBackend())
	th := Thresholds()
	assert.Equal(t, 0.6, th.OverhypeMinCertainty)
	assert.Equal(t, 0.4, th.OverhypeMaxEffectiveness)
	assert.Equal(t, 0.9, IntervalCoverage())
	assert.Equal(t, 2500, CompareSamples())
	assert.Equal(t, uint64(42), CompareSeed())
}

func TestOutOfRangeFallsBack(t *testing.T) {
	t.Setenv("MIN_CERTAINTY", "1.5")
	t.Setenv("INTERVAL_COVERAGE", "1")
	t.Setenv("COMPARE_SAMPLES", "-4")
	t.Setenv("RATE_LIMIT_RPS", "abc")

	assert.Equal(t, belief.DefaultMinCertainty, MinCertainty())
	assert.Equal(t, 0.95, IntervalCoverage())
	assert.Equal(t, belief.DefaultCompareSamples, CompareSamples())
	assert.Equal(t, 100.0, RateLimitRPS())
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SUMMARY_TOP_K=7\n"), 0o644))
	require.NoError(t, os.WriteFile(path+".secret", []byte("API_KEY=from-secret\n"), 0o644))

	t.Setenv("BELIEFS_ENV", path)
	t.Setenv("SUMMARY_TOP_K", "")
	t.Setenv("API_KEY", "")
	os.Unsetenv("SUMMARY_TOP_K")
	os.Unsetenv("API_KEY")

	require.NoError(t, Load())
	assert.Equal(t, 7, SummaryTopK())
	assert.Equal(t, "from-secret", APIKey())
}
