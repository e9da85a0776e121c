package api

import (
	"errors"
	"net/http"

	"radsafe-dashboard/internal/charts"
	"radsafe-dashboard/internal/imaging"
	"radsafe-dashboard/internal/service"
	"radsafe-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
)

// DashboardPage recomputes and renders everything for the session.
// ?q= filters the dose table by staff name.
func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	view := h.Dashboard.Build(sess, r.URL.Query().Get("q"))
	w.Header().Set("Cache-Control", "no-cache")
	h.render(w, http.StatusOK, "dashboard.html", view)
}

// ============================================================================
// Images
// ============================================================================

// ReceiptRouteImage serves the floor plan with the route overlay composited on top
func (h *Handler) ReceiptRouteImage(w http.ResponseWriter, r *http.Request) {
	files := SessionFrom(r.Context()).Files()
	base := files.Uploads[state.SlotFloorPlan]
	var overlay []byte
	if up := files.Uploads[state.SlotRouteOverlay]; up != nil {
		overlay = up.Data
	}
	h.serveImage(w, base, overlay)
}

// ZoningImage serves the zoning plan as PNG
func (h *Handler) ZoningImage(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, SessionFrom(r.Context()).Upload(state.SlotZoning), nil)
}

func (h *Handler) serveImage(w http.ResponseWriter, base *state.Upload, overlay []byte) {
	if base == nil {
		h.writeError(w, http.StatusNotFound, imaging.ErrNoImage.Error())
		return
	}
	img, err := imaging.Composite(base.Data, overlay)
	if err != nil {
		h.Log.Warn("image render failed", "file", base.FileName, "err", err)
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to encode image")
		return
	}
	h.writePNG(w, data)
}

// ============================================================================
// Charts
// ============================================================================

// ChartImage renders the radionuclide bar chart of a log slot
func (h *Handler) ChartImage(w http.ResponseWriter, r *http.Request) {
	slot, err := state.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if _, ok := service.TallyTitle(slot); !ok {
		h.writeError(w, http.StatusNotFound, "slot has no chart")
		return
	}
	tally := service.BuildTally(SessionFrom(r.Context()).Files(), slot)
	data, err := charts.RadionuclideBar(tally.Title, tally.Entries)
	if errors.Is(err, charts.ErrNoData) {
		h.writeError(w, http.StatusNotFound, "no data")
		return
	}
	if err != nil {
		h.Log.Error("chart render failed", "slot", slot, "err", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}
	h.writePNG(w, data)
}
