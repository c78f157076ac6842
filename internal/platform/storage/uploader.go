package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"

	"github.com/uniformline/api/internal/platform/config"
)

var (
	ErrObjectRequired     = errors.New("storage: object name is required")
	ErrEmptyPayload       = errors.New("storage: payload is empty")
	ErrPayloadTooLarge    = errors.New("storage: payload exceeds the permitted size")
	ErrContentTypeMissing = errors.New("storage: content type is required")
	ErrContentTypeDenied  = errors.New("storage: content type not allowed")
)

// ObjectStore abstracts the blob backend so services can be tested without GCS.
type ObjectStore interface {
	Write(ctx context.Context, object, contentType string, data []byte) error
	Remove(ctx context.Context, object string) error
}

// UploadInput describes a single object upload.
type UploadInput struct {
	Object      string
	ContentType string
	Data        []byte
}

// UploadResult reports where the stored object can be fetched from.
type UploadResult struct {
	Object string
	URL    string
	Size   int64
}

// Uploader validates payloads and writes them to the configured bucket.
type Uploader struct {
	store         ObjectStore
	bucket        string
	publicBaseURL string
	maxBytes      int64
	allowedTypes  []string
}

// UploaderOption customises Uploader behaviour.
type UploaderOption func(*Uploader)

// WithAllowedContentTypes restricts accepted content types. Entries may use a
// trailing "/*" wildcard, e.g. "image/*".
func WithAllowedContentTypes(types ...string) UploaderOption {
	return func(u *Uploader) {
		u.allowedTypes = append([]string(nil), types...)
	}
}

// WithObjectStore swaps the backend implementation, primarily for tests.
func WithObjectStore(store ObjectStore) UploaderOption {
	return func(u *Uploader) {
		if store != nil {
			u.store = store
		}
	}
}

// NewUploader builds an Uploader bound to the configured uploads bucket.
func NewUploader(client *gcs.Client, cfg config.StorageConfig, opts ...UploaderOption) (*Uploader, error) {
	bucket := strings.TrimSpace(cfg.UploadsBucket)
	if bucket == "" {
		return nil, errors.New("storage: uploads bucket is required")
	}
	if cfg.UploadMaxBytes <= 0 {
		return nil, errors.New("storage: upload byte cap must be positive")
	}

	uploader := &Uploader{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		maxBytes:      cfg.UploadMaxBytes,
	}
	if client != nil {
		uploader.store = &gcsStore{client: client, bucket: bucket}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	if uploader.store == nil {
		return nil, errors.New("storage: object store is required")
	}
	return uploader, nil
}

// MaxBytes returns the configured per-object byte cap.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload validates and stores the payload, returning the public object URL.
func (u *Uploader) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	object := strings.TrimSpace(input.Object)
	if object == "" {
		return UploadResult{}, ErrObjectRequired
	}
	if len(input.Data) == 0 {
		return UploadResult{}, ErrEmptyPayload
	}
	if int64(len(input.Data)) > u.maxBytes {
		return UploadResult{}, ErrPayloadTooLarge
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		return UploadResult{}, ErrContentTypeMissing
	}
	if len(u.allowedTypes) > 0 && !contentTypeAllowed(contentType, u.allowedTypes) {
		return UploadResult{}, ErrContentTypeDenied
	}

	if err := u.store.Write(ctx, object, contentType, input.Data); err != nil {
		return UploadResult{}, fmt.Errorf("storage: write object %s: %w", object, err)
	}

	return UploadResult{
		Object: object,
		URL:    u.objectURL(object),
		Size:   int64(len(input.Data)),
	}, nil
}

// Delete removes a previously uploaded object. Missing objects are ignored.
func (u *Uploader) Delete(ctx context.Context, object string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrObjectRequired
	}
	if err := u.store.Remove(ctx, object); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("storage: remove object %s: %w", object, err)
	}
	return nil
}

func (u *Uploader) objectURL(object string) string {
	escaped := escapeObjectPath(object)
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + escaped
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, escaped)
}

func escapeObjectPath(object string) string {
	segments := strings.Split(object, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			if strings.HasPrefix(normalized, strings.TrimSuffix(candidate, "*")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}

type gcsStore struct {
	client *gcs.Client
	bucket string
}

func (s *gcsStore) Write(ctx context.Context, object, contentType string, data []byte) error {
	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (s *gcsStore) Remove(ctx context.Context, object string) error {
	return s.client.Bucket(s.bucket).Object(object).Delete(ctx)
}
