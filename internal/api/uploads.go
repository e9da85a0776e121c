package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"radsafe-dashboard/internal/imaging"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/service"
	"radsafe-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
)

var qcExtensions = map[string]bool{".pdf": true, ".csv": true, ".xlsx": true}

// Upload accepts any subset of the slot fields in one multipart form. Each
// file replaces its slot; a file that cannot be read leaves the slot empty and
// produces a warning instead of failing the request.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxMemory); err != nil {
		h.writeError(w, http.StatusBadRequest, "File too large")
		return
	}
	defer r.MultipartForm.RemoveAll()

	resp := models.UploadResponse{Accepted: []models.FileStatus{}}
	for _, slot := range state.Slots {
		file, header, err := r.FormFile(string(slot))
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("Could not read %s upload: %v", slot, err))
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err == nil {
			err = h.storeUpload(sess, slot, header.Filename, header.Header.Get("Content-Type"), data)
		}
		if err != nil {
			sess.ClearSlot(slot)
			h.Metrics.Upload(string(slot), false)
			h.Log.Warn("upload rejected", "slot", slot, "file", header.Filename, "err", err)
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("Could not read %s: %v", header.Filename, err))
			continue
		}
		h.Metrics.Upload(string(slot), true)
		h.Log.Info("upload accepted", "slot", slot, "file", header.Filename, "bytes", len(data))
		resp.Accepted = append(resp.Accepted, service.FileStatusOf(sess.Files(), slot))
	}

	if wantsJSON(r) {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	for _, msg := range resp.Warnings {
		sess.AddWarning(msg)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) storeUpload(sess *state.Session, slot state.Slot, name, contentType string, data []byte) error {
	up := &state.Upload{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		UploadedAt:  time.Now(),
	}

	switch {
	case slot.IsImage():
		if _, err := imaging.Validate(data, h.MaxImagePixels); err != nil {
			return err
		}
		sess.SetUpload(slot, up, nil)
	case slot.IsTable():
		df, err := h.Tables.Parse(name, bytes.NewReader(data))
		if err != nil {
			return err
		}
		// Raw bytes are not needed once parsed
		up.Data = nil
		sess.SetUpload(slot, up, df)
	case slot == state.SlotQCReports:
		if !qcExtensions[strings.ToLower(filepath.Ext(name))] {
			return fmt.Errorf("QC reports must be PDF, CSV or XLSX")
		}
		sess.SetUpload(slot, up, nil)
	}
	return nil
}

// ClearSlot empties one upload slot
func (h *Handler) ClearSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := state.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	SessionFrom(r.Context()).ClearSlot(slot)
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
