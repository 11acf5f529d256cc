package events

import "github.com/joagonca/docview/thumbnail"

// ViewportChanged is emitted on scroll or resize of the thumbnail panel,
// after the caller's own debouncing.
type ViewportChanged struct {
	ScrollTop float64
	Height    float64
}

// RenderStarted and RenderFinished bracket a full page render of the main
// view.
type RenderStarted struct {
	Page int
}

type RenderFinished struct {
	Page int
	Err  error
}

type DocumentLoaded struct {
	Path      string
	PageCount int
}

type DocumentClosed struct {
	Path string
}

type PageChanged struct {
	Page int
}

type ZoomChanged struct {
	Zoom float64
}

type ThumbnailLoaded struct {
	Slot int
	Size thumbnail.Size
}

type AnnotationsSaved struct {
	Err error
}

// Bus holds one topic per viewer event.
type Bus struct {
	ViewportChanged  Topic[ViewportChanged]
	RenderStarted    Topic[RenderStarted]
	RenderFinished   Topic[RenderFinished]
	DocumentLoaded   Topic[DocumentLoaded]
	DocumentClosed   Topic[DocumentClosed]
	PageChanged      Topic[PageChanged]
	ZoomChanged      Topic[ZoomChanged]
	ThumbnailLoaded  Topic[ThumbnailLoaded]
	AnnotationsSaved Topic[AnnotationsSaved]
}

func NewBus() *Bus {
	return &Bus{}
}
