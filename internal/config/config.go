package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/rlbelief/internal/belief"
	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Load reads the .env file named by BELIEFS_ENV (or .env), then its .secret
// sidecar. Both are optional. Everything else is a flat env var read on demand.
func Load() error {
	envFile := os.Getenv("BELIEFS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// LogLevel returns debug, info, warn or error. Defaults to info.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RateLimitRPS defaults to 100.
func RateLimitRPS() float64 {
	return positiveFloat("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst defaults to 20.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// APIKey guards the write routes when set.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// SnapshotBackend returns file or postgres. Defaults to file.
func SnapshotBackend() string {
	switch strings.ToLower(os.Getenv("SNAPSHOT_BACKEND")) {
	case BackendPostgres, "pg":
		return BackendPostgres
	default:
		return BackendFile
	}
}

func DataDir() string {
	dir := os.Getenv("DATA_DIR")
	if dir == "" {
		return "data/beliefs"
	}
	return dir
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MinCertainty() float64 {
	return unitFloat("MIN_CERTAINTY", belief.DefaultMinCertainty)
}

func OverhypeMinCertainty() float64 {
	return unitFloat("OVERHYPE_MIN_CERTAINTY", belief.DefaultOverhypeMinCertainty)
}

func OverhypeMaxEffectiveness() float64 {
	return unitFloat("OVERHYPE_MAX_EFFECTIVENESS", belief.DefaultOverhypeMaxEffectiveness)
}

func UncertainMaxCertainty() float64 {
	return unitFloat("UNCERTAIN_MAX_CERTAINTY", belief.DefaultUncertainMaxCertainty)
}

// IntervalCoverage must lie strictly inside (0, 1). Defaults to 0.95.
func IntervalCoverage() float64 {
	v, err := strconv.ParseFloat(os.Getenv("INTERVAL_COVERAGE"), 64)
	if err != nil || !(v > 0 && v < 1) {
		return domain.DefaultIntervalCoverage
	}
	return v
}

func CompareSamples() int {
	n, err := strconv.Atoi(os.Getenv("COMPARE_SAMPLES"))
	if err != nil || n <= 0 || n > belief.MaxCompareSamples {
		return belief.DefaultCompareSamples
	}
	return n
}

func CompareSeed() uint64 {
	seed, err := strconv.ParseUint(os.Getenv("COMPARE_SEED"), 10, 64)
	if err != nil {
		return 1
	}
	return seed
}

func SummaryTopK() int {
	k, err := strconv.Atoi(os.Getenv("SUMMARY_TOP_K"))
	if err != nil || k <= 0 {
		return belief.DefaultSummaryTopK
	}
	return k
}

// Thresholds bundles the ranking cut-offs for belief.Ranker.
func Thresholds() belief.Thresholds {
	return belief.Thresholds{
		MinCertainty:             MinCertainty(),
		OverhypeMinCertainty:     OverhypeMinCertainty(),
		OverhypeMaxEffectiveness: OverhypeMaxEffectiveness(),
		UncertainMaxCertainty:    UncertainMaxCertainty(),
	}
}

func positiveFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func unitFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 || v > 1 {
		return def
	}
	return v
}
