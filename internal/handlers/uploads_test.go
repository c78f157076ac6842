package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uniformline/api/internal/platform/storage"
)

type fakeUploader struct {
	maxBytes int64
	err      error
	objects  []string
}

func (f *fakeUploader) Upload(_ context.Context, input storage.UploadInput) (storage.UploadResult, error) {
	if f.err != nil {
		return storage.UploadResult{}, f.err
	}
	f.objects = append(f.objects, input.Object)
	return storage.UploadResult{
		Object: input.Object,
		URL:    "https://storage.googleapis.com/test-uploads/" + input.Object,
		Size:   int64(len(input.Data)),
	}, nil
}

func (f *fakeUploader) Delete(_ context.Context, object string) error {
	for i, stored := range f.objects {
		if stored == object {
			f.objects = append(f.objects[:i], f.objects[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeUploader) MaxBytes() int64 {
	return f.maxBytes
}

func multipartBody(t *testing.T, fieldName, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + fieldName + `"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestUploadSlotOverHTTP(t *testing.T) {
	router := newWizardTestRouter(t)
	sessionID := startSchoolsSession(t, router)
	submitValidContact(t, router, sessionID)

	body, contentType := multipartBody(t, "file", "logo.png", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizard/uploads/logo", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(sessionHeader, sessionID)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d body %s", rr.Code, rr.Body.String())
	}

	var view struct {
		Slots map[string]struct {
			Status   string `json:"status"`
			URL      string `json:"url"`
			FileName string `json:"fileName"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("parse view: %v", err)
	}
	slot := view.Slots["logo"]
	if slot.Status != "done" || slot.FileName != "logo.png" || slot.URL == "" {
		t.Fatalf("slot = %+v", slot)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/wizard/uploads", sessionID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("states status = %d", rr.Code)
	}
}

func TestUploadUnknownSlotOverHTTP(t *testing.T) {
	router := newWizardTestRouter(t)
	sessionID := startSchoolsSession(t, router)

	body, contentType := multipartBody(t, "file", "x.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizard/uploads/banner", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(sessionHeader, sessionID)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	router := newWizardTestRouter(t)
	sessionID := startSchoolsSession(t, router)

	body, contentType := multipartBody(t, "attachment", "x.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizard/uploads/logo", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(sessionHeader, sessionID)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
