package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"radsafe-dashboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatSize": func(size int64) string {
		const unit = 1024
		if size < unit {
			return fmt.Sprintf("%d B", size)
		}
		div, exp := int64(unit), 0
		for n := size / unit; n >= unit; n /= unit {
			div *= unit
			exp++
		}
		return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
	},
	"dose": func(v *float64) string {
		if v == nil {
			return models.Placeholder
		}
		return fmt.Sprintf("%.3f", *v)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
	"cell": func(rec map[string]string, key string) string {
		return rec[key]
	},
}

var templates = template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))

// render executes into a buffer first so a template error never leaves a
// half-written page behind
func (h *Handler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.Log.Error("template error", "template", name, "err", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
