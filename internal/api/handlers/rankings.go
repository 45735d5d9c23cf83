package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/rlbelief/internal/service"
)

type RankingHandler struct {
	svc *service.RankingService
}

func NewRankingHandler(svc *service.RankingService) *RankingHandler {
	return &RankingHandler{svc: svc}
}

func (h *RankingHandler) Effective(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.Config().Thresholds
	minCertainty, err := unitParam(r, "min_certainty", cfg.MinCertainty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.svc.Effective(r.Context(), minCertainty)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": rows, "min_certainty": minCertainty})
}

func (h *RankingHandler) Overhyped(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.Config().Thresholds
	minCertainty, err := unitParam(r, "min_certainty", cfg.OverhypeMinCertainty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxEffectiveness, err := unitParam(r, "max_effectiveness", cfg.OverhypeMaxEffectiveness)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.svc.Overhyped(r.Context(), minCertainty, maxEffectiveness)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rankings":          rows,
		"min_certainty":     minCertainty,
		"max_effectiveness": maxEffectiveness,
	})
}

func (h *RankingHandler) Uncertain(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.Config()
	maxCertainty, err := unitParam(r, "max_certainty", cfg.Thresholds.UncertainMaxCertainty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.svc.Uncertain(r.Context(), maxCertainty, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": rows, "max_certainty": maxCertainty})
}

func (h *RankingHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := strings.TrimSpace(q.Get("a")), strings.TrimSpace(q.Get("b"))
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "a and b are required")
		return
	}
	samples, err := intParam(r, "samples", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var seed *uint64
	if raw := q.Get("seed"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "seed must be an unsigned integer")
			return
		}
		seed = &v
	}

	cmp, err := h.svc.Compare(r.Context(), a, b, samples, seed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (h *RankingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	topK, err := intParam(r, "top_k", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := h.svc.Summary(r.Context(), topK)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
