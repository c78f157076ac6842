package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/httpx"
	"github.com/uniformline/api/internal/services"
)

// multipartOverhead leaves room for the multipart framing around a payload
// that is itself at the slot byte cap.
const multipartOverhead = 64 * 1024

const maxUploadBytes = 10 << 20

func (h *WizardHandlers) storeUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	slot := domain.UploadSlot(chi.URLParam(r, "slot"))
	if !slot.Valid() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown upload slot", http.StatusBadRequest))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeUploadBodyError(ctx, w, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart field \"file\" is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeUploadBodyError(ctx, w, err)
		return
	}

	view, err := h.uploads.Store(ctx, sessionID, slot, services.UploadFileInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeUploadError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) uploadStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.uploads.States(ctx, sessionID)
	if err != nil {
		writeUploadError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func writeUploadBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "uploaded file exceeds the 10MB limit", http.StatusRequestEntityTooLarge))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed multipart request", http.StatusBadRequest))
}

func writeUploadError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUploadTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "uploaded file exceeds the 10MB limit", http.StatusRequestEntityTooLarge))
	case errors.Is(err, services.ErrUploadSlotBusy):
		httpx.WriteError(ctx, w, httpx.NewError("upload_in_progress", "another upload for this slot is still in progress", http.StatusConflict))
	case errors.Is(err, services.ErrUploadInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid upload input", http.StatusBadRequest))
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "session does not exist or has expired", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "upload failed", http.StatusInternalServerError))
	}
}
