package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/uniformline/api/internal/platform/httpx"
	"github.com/uniformline/api/internal/services"
)

const sessionHeader = "X-Session-ID"

var errBodyTooLarge = errors.New("request body exceeds allowed size")

// decodeJSONBody streams the request body through a size-capped decoder. An
// empty body leaves dst untouched.
func decodeJSONBody(r *http.Request, limit int64, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	limited := &io.LimitedReader{R: r.Body, N: limit + 1}
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if limited.N <= 0 {
			return errBodyTooLarge
		}
		return err
	}
	if limited.N <= 0 {
		return errBodyTooLarge
	}
	return nil
}

func sessionIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(sessionHeader))
}

func requireSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("session_required", "X-Session-ID header is required", http.StatusBadRequest))
		return "", false
	}
	return sessionID, true
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
}

// writeValidationError renders field-level failures without advancing state.
func writeValidationError(ctx context.Context, w http.ResponseWriter, vErr *services.ValidationError) {
	fields := make(map[string]any, len(vErr.Fields))
	for field, message := range vErr.Fields {
		fields[field] = message
	}
	httpx.WriteError(ctx, w, httpx.
		NewError("validation_failed", "one or more fields failed validation", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{"fields": fields}))
}
