package document

import (
	"github.com/google/uuid"
	"github.com/joagonca/docview/thumbnail"
)

// RequestHandle identifies one in-flight thumbnail load.
type RequestHandle uuid.UUID

func NewRequestHandle() RequestHandle {
	return RequestHandle(uuid.New())
}

func (h RequestHandle) String() string {
	return uuid.UUID(h).String()
}

// Handle is the surface of a loaded document the thumbnail scheduler
// depends on.
type Handle interface {
	PageCount() int
	// LoadThumbnailAsync starts loading the thumbnail for a zero based
	// page. onReady is called at most once, never after the request has
	// been cancelled.
	LoadThumbnailAsync(slot int, onReady func(thumbnail.Thumbnail)) RequestHandle
	// CancelLoadThumbnail is best effort and safe to call on completed or
	// already cancelled requests.
	CancelLoadThumbnail(h RequestHandle)
}

// Dispatcher runs fn on the goroutine that owns the viewer state. It
// returns false when fn will never run.
type Dispatcher func(fn func()) bool

// Immediate runs callbacks on the calling goroutine.
func Immediate(fn func()) bool {
	fn()
	return true
}
