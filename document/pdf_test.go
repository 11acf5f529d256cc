package document

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joagonca/docview/thumbnail"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu      sync.Mutex
	pages   []int
	running int32
	peak    int32
	gate    chan struct{}
	err     error
}

func (r *fakeRenderer) Render(ctx context.Context, path string, page, scaleTo int) (image.Image, error) {
	n := atomic.AddInt32(&r.running, 1)
	defer atomic.AddInt32(&r.running, -1)
	for {
		p := atomic.LoadInt32(&r.peak)
		if n <= p || atomic.CompareAndSwapInt32(&r.peak, p, n) {
			break
		}
	}

	r.mu.Lock()
	r.pages = append(r.pages, page)
	r.mu.Unlock()

	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return image.NewRGBA(image.Rect(0, 0, scaleTo/2, scaleTo)), nil
}

// queue collects dispatched callbacks so tests control when they run.
type queue struct {
	mu  sync.Mutex
	fns []func()
	ch  chan struct{}
}

func newQueue() *queue {
	return &queue{ch: make(chan struct{}, 16)}
}

func (q *queue) dispatch(fn func()) bool {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
	q.ch <- struct{}{}
	return true
}

func (q *queue) wait(t *testing.T) {
	select {
	case <-q.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func (q *queue) drain() {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func letterPages(n int) []types.Dim {
	dims := make([]types.Dim, n)
	for i := range dims {
		dims[i] = types.Dim{Width: 612, Height: 792}
	}
	return dims
}

func TestPageCountAndSize(t *testing.T) {
	d := newPDF("doc.pdf", letterPages(3), Options{Renderer: &fakeRenderer{}})
	assert.Equal(t, 3, d.PageCount())
	assert.Equal(t, "doc.pdf", d.Path())

	w, h, ok := d.PageSize(2)
	assert.True(t, ok)
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 792.0, h)

	_, _, ok = d.PageSize(3)
	assert.False(t, ok)
}

func TestLoadThumbnailDelivers(t *testing.T) {
	r := &fakeRenderer{}
	q := newQueue()
	d := newPDF("doc.pdf", letterPages(3), Options{Renderer: r, RenderScale: 200, Dispatch: q.dispatch})

	var got []thumbnail.Thumbnail
	d.LoadThumbnailAsync(1, func(th thumbnail.Thumbnail) { got = append(got, th) })
	q.wait(t)
	q.drain()

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, 100, got[0].Width())
	assert.Equal(t, 200, got[0].Height())
	assert.Equal(t, []int{2}, r.pages)
	assert.Equal(t, 0, d.InFlight())
}

func TestCancelBeforeDeliveryDropsThumbnail(t *testing.T) {
	q := newQueue()
	d := newPDF("doc.pdf", letterPages(3), Options{Renderer: &fakeRenderer{}, Dispatch: q.dispatch})

	called := false
	h := d.LoadThumbnailAsync(0, func(thumbnail.Thumbnail) { called = true })
	q.wait(t)

	d.CancelLoadThumbnail(h)
	q.drain()

	assert.False(t, called)
	assert.Equal(t, 0, d.InFlight())
}

func TestCancelWhileRendering(t *testing.T) {
	r := &fakeRenderer{gate: make(chan struct{})}
	q := newQueue()
	d := newPDF("doc.pdf", letterPages(3), Options{Renderer: r, Dispatch: q.dispatch})

	h := d.LoadThumbnailAsync(0, func(thumbnail.Thumbnail) { t.Error("cancelled load delivered") })
	d.CancelLoadThumbnail(h)
	assert.Equal(t, 0, d.InFlight())

	// cancelling again, or an unknown handle, is a no-op
	d.CancelLoadThumbnail(h)
	d.CancelLoadThumbnail(NewRequestHandle())
}

func TestRenderErrorNeverDelivers(t *testing.T) {
	r := &fakeRenderer{err: errors.New("boom")}
	d := newPDF("doc.pdf", letterPages(1), Options{Renderer: r})

	d.LoadThumbnailAsync(0, func(thumbnail.Thumbnail) { t.Error("failed load delivered") })
	assert.Eventually(t, func() bool { return d.InFlight() == 0 }, time.Second, 5*time.Millisecond)
}

func TestConcurrencyIsBounded(t *testing.T) {
	r := &fakeRenderer{gate: make(chan struct{})}
	d := newPDF("doc.pdf", letterPages(4), Options{Renderer: r, Concurrency: 2})
	defer d.Close()

	var delivered int32
	for i := 0; i < 4; i++ {
		d.LoadThumbnailAsync(i, func(thumbnail.Thumbnail) { atomic.AddInt32(&delivered, 1) })
	}
	for i := 0; i < 4; i++ {
		r.gate <- struct{}{}
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&delivered) == 4 }, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&r.peak), int32(2))
}

func TestCloseCancelsInFlight(t *testing.T) {
	r := &fakeRenderer{gate: make(chan struct{})}
	d := newPDF("doc.pdf", letterPages(2), Options{Renderer: r})

	d.LoadThumbnailAsync(0, func(thumbnail.Thumbnail) { t.Error("load delivered after close") })
	d.LoadThumbnailAsync(1, func(thumbnail.Thumbnail) { t.Error("load delivered after close") })
	require.NoError(t, d.Close())
	assert.Equal(t, 0, d.InFlight())
}

func TestRenderPageRange(t *testing.T) {
	d := newPDF("doc.pdf", letterPages(2), Options{Renderer: &fakeRenderer{}})

	img, err := d.RenderPage(context.Background(), 2, 800)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dy())

	_, err = d.RenderPage(context.Background(), 3, 800)
	assert.Error(t, err)
	_, err = d.RenderPage(context.Background(), 0, 800)
	assert.Error(t, err)
}
