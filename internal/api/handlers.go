package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/observability"
	"radsafe-dashboard/internal/service"
	"radsafe-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
)

const (
	SessionCookie = "radsafe_session"
	// MaxMemory is how much of a multipart upload is buffered in RAM
	MaxMemory = 8 << 20
)

type Handler struct {
	Log            *slog.Logger
	Sessions       *state.Store
	Tables         *analysis.TableService
	Dashboard      *service.DashboardService
	Metrics        *observability.Metrics
	Users          map[string]string
	MaxUploadBytes int64
	MaxImagePixels int64
}

func NewHandler(log *slog.Logger, sessions *state.Store, tables *analysis.TableService, dash *service.DashboardService, metrics *observability.Metrics, users map[string]string, maxUpload, maxImagePixels int64) *Handler {
	return &Handler{
		Log:            log,
		Sessions:       sessions,
		Tables:         tables,
		Dashboard:      dash,
		Metrics:        metrics,
		Users:          users,
		MaxUploadBytes: maxUpload,
		MaxImagePixels: maxImagePixels,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.WithSession)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Pages
		r.Group(func(r chi.Router) {
			r.Use(h.RequirePage)
			r.Get("/", h.DashboardPage)
			r.Post("/upload", h.Upload)
			r.Post("/upload/{slot}/clear", h.ClearSlot)
		})

		// Images, charts and JSON
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAPI)
			r.Get("/images/receipt-route.png", h.ReceiptRouteImage)
			r.Get("/images/zoning.png", h.ZoningImage)
			r.Get("/charts/{slot}.png", h.ChartImage)

			r.Get("/api/status", h.GetStatus)
			r.Get("/api/kpis", h.GetKPIs)
			r.Get("/api/dose", h.GetDose)
			r.Get("/api/tally/{slot}", h.GetTally)
			r.Get("/api/preview", h.GetPreview)
		})
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Helpers
// ============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func (h *Handler) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json"
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
