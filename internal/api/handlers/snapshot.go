package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/Harshitk-cp/rlbelief/internal/service"
	"github.com/Harshitk-cp/rlbelief/internal/store"
)

type SnapshotHandler struct {
	svc *service.BeliefService
}

func NewSnapshotHandler(svc *service.BeliefService) *SnapshotHandler {
	return &SnapshotHandler{svc: svc}
}

func (h *SnapshotHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Import replaces the current beliefs. Unknown fields are rejected.
func (h *SnapshotHandler) Import(w http.ResponseWriter, r *http.Request) {
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

	snap, err := store.DecodeSnapshot(raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ref, err := h.svc.Import(r.Context(), snap)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (h *SnapshotHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	refs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if refs == nil {
		refs = []domain.SnapshotRef{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": refs})
}
