package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/rlbelief/internal/service"
	"github.com/go-chi/chi/v5"
)

type BeliefHandler struct {
	rankings *service.RankingService
}

func NewBeliefHandler(rankings *service.RankingService) *BeliefHandler {
	return &BeliefHandler{rankings: rankings}
}

func (h *BeliefHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rankings.All(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"beliefs": rows, "count": len(rows)})
}

func (h *BeliefHandler) Get(w http.ResponseWriter, r *http.Request) {
	row, err := h.rankings.Describe(r.Context(), chi.URLParam(r, "technique"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
