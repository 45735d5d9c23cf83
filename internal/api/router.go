package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/api/handlers"
	mw "github.com/Harshitk-cp/rlbelief/internal/api/middleware"
	"github.com/Harshitk-cp/rlbelief/internal/buildconfig"
	"github.com/Harshitk-cp/rlbelief/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports whether the snapshot backend is reachable.
type Pinger func(ctx context.Context) error

type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	Ping           Pinger
}

// App holds the router and the counters behind /metrics.
type App struct {
	Router    *chi.Mux
	metrics   *mw.MetricsCollector
	beliefs   *service.BeliefService
	startTime time.Time
}

// NewApp wires handlers over the two services. ctx bounds background work
// started by middleware.
func NewApp(ctx context.Context, beliefs *service.BeliefService, rankings *service.RankingService, logger *zap.Logger, opts Options) *App {
	evidenceHandler := handlers.NewEvidenceHandler(beliefs)
	beliefHandler := handlers.NewBeliefHandler(rankings)
	rankingHandler := handlers.NewRankingHandler(rankings)
	snapshotHandler := handlers.NewSnapshotHandler(beliefs)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		metrics:   mw.NewMetricsCollector(),
		beliefs:   beliefs,
		startTime: time.Now(),
	}

	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	if opts.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(ctx, opts.RateLimitRPS, opts.RateLimitBurst))
	}

	r.Get("/health", healthHandler(opts.Ping))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/beliefs", func(r chi.Router) {
			r.Get("/", beliefHandler.List)
			r.Get("/{technique}", beliefHandler.Get)
		})

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/effective", rankingHandler.Effective)
			r.Get("/overhyped", rankingHandler.Overhyped)
			r.Get("/uncertain", rankingHandler.Uncertain)
		})
		r.Get("/compare", rankingHandler.Compare)
		r.Get("/summary", rankingHandler.Summary)

		r.Get("/snapshot", snapshotHandler.Export)
		r.Get("/snapshots", snapshotHandler.History)

		// Writes
		r.Group(func(r chi.Router) {
			r.Use(mw.APIKeyAuth(opts.APIKey))
			r.Post("/evidence", evidenceHandler.Ingest)
			r.Put("/snapshot", snapshotHandler.Import)
		})
	})

	return app
}

func healthHandler(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		resp := map[string]any{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			resp[k] = v
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		counts := app.metrics.Counts()

		response := map[string]any{
			"uptime_seconds":     uptime.Seconds(),
			"uptime_human":       uptime.Round(time.Second).String(),
			"request_count":      counts.Requests,
			"client_error_count": counts.ClientErrors,
			"server_error_count": counts.ServerErrors,
			"goroutines":         runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
		}
		if snap, err := app.beliefs.Snapshot(r.Context()); err == nil {
			evidence := 0
			for _, b := range snap.Beliefs {
				evidence += b.EvidenceCount
			}
			response["techniques"] = len(snap.Beliefs)
			response["evidence_applied"] = evidence
			response["snapshot_taken_at"] = snap.TakenAt
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
