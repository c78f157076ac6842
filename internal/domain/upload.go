package domain

// UploadSlot names one of the three independent file slots a wizard session
// carries.
type UploadSlot string

const (
	SlotLogo        UploadSlot = "logo"
	SlotColorSample UploadSlot = "colorSample"
	SlotReference   UploadSlot = "reference"
)

// Valid reports whether the slot is a known value.
func (s UploadSlot) Valid() bool {
	switch s {
	case SlotLogo, SlotColorSample, SlotReference:
		return true
	}
	return false
}

// UploadSlots lists all slots in display order.
func UploadSlots() []UploadSlot {
	return []UploadSlot{SlotLogo, SlotColorSample, SlotReference}
}

// SlotStatus is the lifecycle state of an upload slot.
type SlotStatus string

const (
	SlotIdle      SlotStatus = "idle"
	SlotUploading SlotStatus = "uploading"
	SlotDone      SlotStatus = "done"
	SlotFailed    SlotStatus = "failed"
)

// SlotState records the current status and, once done, the stored object URL
// and bucket key. The key lets a replacing upload remove the superseded object.
type SlotState struct {
	Status   SlotStatus `json:"status" firestore:"status"`
	URL      string     `json:"url,omitempty" firestore:"url,omitempty"`
	Object   string     `json:"object,omitempty" firestore:"object,omitempty"`
	FileName string     `json:"fileName,omitempty" firestore:"file_name,omitempty"`
	Error    string     `json:"error,omitempty" firestore:"error,omitempty"`
}
