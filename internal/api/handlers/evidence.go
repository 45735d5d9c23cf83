package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Harshitk-cp/rlbelief/internal/evidence"
	"github.com/Harshitk-cp/rlbelief/internal/service"
)

type EvidenceHandler struct {
	svc *service.BeliefService
}

func NewEvidenceHandler(svc *service.BeliefService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

// Ingest applies one batch. The body is {"evidence": [...]} or a bare array.
func (h *EvidenceHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	batch, err := evidence.Decode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(batch) == 0 {
		writeError(w, http.StatusBadRequest, "evidence is required")
		return
	}

	res, err := h.svc.Apply(r.Context(), batch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
