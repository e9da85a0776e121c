package api

import (
	"net/http"

	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/service"
	"radsafe-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
)

// ============================================================================
// Status
// ============================================================================

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	h.writeJSON(w, http.StatusOK, models.StatusResponse{
		User:          sess.User(),
		Authenticated: sess.Authenticated(),
		Files:         service.FileStatuses(sess.Files()),
	})
}

// ============================================================================
// KPIs
// ============================================================================

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	files := SessionFrom(r.Context()).Files()
	h.writeJSON(w, http.StatusOK, models.KPIResponse{KPIs: service.ComputeKPIs(files)})
}

// ============================================================================
// Dose
// ============================================================================

func (h *Handler) GetDose(w http.ResponseWriter, r *http.Request) {
	files := SessionFrom(r.Context()).Files()
	h.writeJSON(w, http.StatusOK, h.Dashboard.Dose(files, r.URL.Query().Get("q")))
}

// ============================================================================
// Tally
// ============================================================================

func (h *Handler) GetTally(w http.ResponseWriter, r *http.Request) {
	slot, err := state.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if _, ok := service.TallyTitle(slot); !ok {
		h.writeError(w, http.StatusNotFound, "slot has no tally")
		return
	}
	h.writeJSON(w, http.StatusOK, service.BuildTally(SessionFrom(r.Context()).Files(), slot))
}

// ============================================================================
// Preview
// ============================================================================

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	rows := getIntParam(r, "rows", service.PreviewRows)
	preview := h.Dashboard.Preview(SessionFrom(r.Context()).Files(), rows)
	if preview == nil {
		h.writeError(w, http.StatusNotFound, "Upload receipt log CSV/XLSX to preview here.")
		return
	}
	h.writeJSON(w, http.StatusOK, preview)
}
