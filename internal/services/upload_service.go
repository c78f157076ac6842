package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/storage"
)

var (
	errUploadStateRequired    = errors.New("upload service: state manager is required")
	errUploadUploaderRequired = errors.New("upload service: uploader is required")
	errUploadClockRequired    = errors.New("upload service: clock is required")
	errUploadIDGenRequired    = errors.New("upload service: id generator is required")
)

var (
	// ErrUploadInvalidInput indicates a bad slot name or an empty payload.
	ErrUploadInvalidInput = errors.New("upload service: invalid input")
	// ErrUploadTooLarge indicates the payload exceeds the configured byte cap.
	ErrUploadTooLarge = errors.New("upload service: payload too large")
	// ErrUploadSlotBusy indicates another upload for the slot is in flight.
	ErrUploadSlotBusy = errors.New("upload service: slot upload in progress")
)

// ObjectUploader is the subset of the storage uploader the service needs.
type ObjectUploader interface {
	Upload(ctx context.Context, input storage.UploadInput) (storage.UploadResult, error)
	Delete(ctx context.Context, object string) error
	MaxBytes() int64
}

// UploadFileInput carries one file received from the customization form.
type UploadFileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadStatesView reports every slot's current state.
type UploadStatesView struct {
	Slots map[domain.UploadSlot]domain.SlotState `json:"slots"`
}

// UploadService manages the three customization upload slots. Each slot holds
// at most one file; re-uploading replaces the previous one.
type UploadService interface {
	Store(ctx context.Context, sessionID string, slot domain.UploadSlot, input UploadFileInput) (UploadStatesView, error)
	States(ctx context.Context, sessionID string) (UploadStatesView, error)
}

// UploadServiceDeps wires the blob uploader and session state behind the service.
type UploadServiceDeps struct {
	State       *StateManager
	Uploader    ObjectUploader
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, msg string, fields map[string]any)
}

type uploadService struct {
	state    *StateManager
	uploader ObjectUploader
	now      func() time.Time
	newID    func() string
	log      func(ctx context.Context, msg string, fields map[string]any)
}

// NewUploadService constructs an UploadService enforcing dependency validation.
func NewUploadService(deps UploadServiceDeps) (UploadService, error) {
	if deps.State == nil {
		return nil, errUploadStateRequired
	}
	if deps.Uploader == nil {
		return nil, errUploadUploaderRequired
	}
	if deps.Clock == nil {
		return nil, errUploadClockRequired
	}
	if deps.IDGenerator == nil {
		return nil, errUploadIDGenRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &uploadService{
		state:    deps.State,
		uploader: deps.Uploader,
		now:      func() time.Time { return deps.Clock().UTC() },
		newID:    deps.IDGenerator,
		log:      logger,
	}, nil
}

// Store validates the payload, marks the slot uploading, writes the object,
// and records the outcome. The slot ends in done or failed state either way.
func (s *uploadService) Store(ctx context.Context, sessionID string, slot domain.UploadSlot, input UploadFileInput) (UploadStatesView, error) {
	if !slot.Valid() {
		return UploadStatesView{}, ErrUploadInvalidInput
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" || len(input.Data) == 0 {
		return UploadStatesView{}, ErrUploadInvalidInput
	}
	if int64(len(input.Data)) > s.uploader.MaxBytes() {
		return UploadStatesView{}, ErrUploadTooLarge
	}

	object, err := storage.BuildUploadPath(storage.UploadPathParams{
		SessionID: sessionID,
		Slot:      string(slot),
		UploadID:  s.newID(),
		FileName:  fileName,
	})
	if err != nil {
		return UploadStatesView{}, ErrUploadInvalidInput
	}

	// Phase one: claim the slot before touching the bucket so a concurrent
	// finalize sees the upload in flight and refuses to complete.
	var superseded string
	_, err = s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		prior := state.SlotState(slot)
		if prior.Status == domain.SlotUploading {
			return ErrUploadSlotBusy
		}
		if prior.Status == domain.SlotDone {
			superseded = prior.Object
		}
		state.SetSlotState(slot, domain.SlotState{
			Status:   domain.SlotUploading,
			FileName: fileName,
		})
		return nil
	})
	if err != nil {
		return UploadStatesView{}, err
	}

	result, uploadErr := s.uploader.Upload(ctx, storage.UploadInput{
		Object:      object,
		ContentType: input.ContentType,
		Data:        input.Data,
	})

	// Phase two: record the outcome. The session may have expired while the
	// bucket write ran; the orphaned object is left for the prefix sweep.
	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if uploadErr != nil {
			state.SetSlotState(slot, domain.SlotState{
				Status:   domain.SlotFailed,
				FileName: fileName,
				Error:    uploadFailureReason(uploadErr),
			})
			return nil
		}
		state.SetSlotState(slot, domain.SlotState{
			Status:   domain.SlotDone,
			URL:      result.URL,
			Object:   result.Object,
			FileName: fileName,
		})
		return nil
	})
	if err != nil {
		s.log(ctx, "upload outcome not recorded", map[string]any{
			"sessionId": sessionID,
			"slot":      string(slot),
			"error":     err.Error(),
		})
		return UploadStatesView{}, err
	}

	if uploadErr != nil {
		s.log(ctx, "upload failed", map[string]any{
			"sessionId": sessionID,
			"slot":      string(slot),
			"error":     uploadErr.Error(),
		})
	} else if superseded != "" {
		// Best effort: the replaced object is no longer referenced anywhere.
		if err := s.uploader.Delete(ctx, superseded); err != nil {
			s.log(ctx, "superseded upload not removed", map[string]any{
				"sessionId": sessionID,
				"slot":      string(slot),
				"object":    superseded,
				"error":     err.Error(),
			})
		}
	}
	return uploadStatesView(&state), nil
}

// States returns the current state of every upload slot.
func (s *uploadService) States(ctx context.Context, sessionID string) (UploadStatesView, error) {
	state, err := s.state.View(ctx, sessionID)
	if err != nil {
		return UploadStatesView{}, err
	}
	return uploadStatesView(&state), nil
}

func uploadStatesView(state *SessionState) UploadStatesView {
	view := UploadStatesView{Slots: make(map[domain.UploadSlot]domain.SlotState, 3)}
	for _, slot := range domain.UploadSlots() {
		view.Slots[slot] = state.SlotState(slot)
	}
	return view
}

func uploadFailureReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrPayloadTooLarge):
		return "payload too large"
	case errors.Is(err, storage.ErrContentTypeDenied):
		return "content type not allowed"
	default:
		return "storage write failed"
	}
}
