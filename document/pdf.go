package document

import (
	"context"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/joagonca/docview/log"
	"github.com/joagonca/docview/thumbnail"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

func init() {
	// pdfcpu writes a config dir on first use unless told otherwise
	api.DisableConfigDir()
}

// ErrPasswordRequired is returned when a document is encrypted and the
// given user password is missing or wrong.
var ErrPasswordRequired = errors.New("document requires a password")

const (
	defaultRenderScale = 300
	defaultConcurrency = 4
)

type Options struct {
	Renderer Renderer
	// RenderScale is the longer side, in pixels, of rasterized thumbnails.
	RenderScale int
	// Concurrency bounds the number of pages rasterized at once.
	Concurrency int
	// Dispatch delivers completed thumbnails. Cancellation only guarantees
	// no delivery when it happens on the dispatch goroutine.
	Dispatch Dispatcher
	// Password is the user password of an encrypted document.
	Password string
}

// PDF is a Handle backed by a PDF file on disk.
type PDF struct {
	path string
	dims []types.Dim
	opts Options
	sem  *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[RequestHandle]context.CancelFunc
}

// OpenPDF reads the page tree of the file at path.
func OpenPDF(path string, opts Options) (*PDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open document")
	}
	defer f.Close()

	dims, err := api.PageDims(f, pdfConfig(opts.Password))
	if err != nil {
		if isPasswordError(err) {
			return nil, ErrPasswordRequired
		}
		return nil, errors.Wrapf(err, "failed to read pages of %s", path)
	}
	log.Trace.Printf("opened %s with %d pages", path, len(dims))

	return newPDF(path, dims, opts), nil
}

func pdfConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	return conf
}

func isPasswordError(err error) bool {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	// not every decryption failure is wrapped
	return strings.Contains(strings.ToLower(err.Error()), "password")
}

func newPDF(path string, dims []types.Dim, opts Options) *PDF {
	if opts.Renderer == nil {
		opts.Renderer = Pdftoppm{}
	}
	if pr, ok := opts.Renderer.(PasswordRenderer); ok && opts.Password != "" {
		opts.Renderer = pr.WithPassword(opts.Password)
	}
	if opts.RenderScale <= 0 {
		opts.RenderScale = defaultRenderScale
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Dispatch == nil {
		opts.Dispatch = Immediate
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PDF{
		path:     path,
		dims:     dims,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[RequestHandle]context.CancelFunc),
	}
}

func (d *PDF) Path() string {
	return d.path
}

func (d *PDF) PageCount() int {
	return len(d.dims)
}

// PageSize returns the media size, in points, of the zero based page.
func (d *PDF) PageSize(slot int) (width, height float64, ok bool) {
	if slot < 0 || slot >= len(d.dims) {
		return 0, 0, false
	}
	return d.dims[slot].Width, d.dims[slot].Height, true
}

func (d *PDF) LoadThumbnailAsync(slot int, onReady func(thumbnail.Thumbnail)) RequestHandle {
	h := NewRequestHandle()
	ctx, cancel := context.WithCancel(d.ctx)

	d.mu.Lock()
	d.inflight[h] = cancel
	d.mu.Unlock()

	go d.load(ctx, h, slot, onReady)
	return h
}

func (d *PDF) load(ctx context.Context, h RequestHandle, slot int, onReady func(thumbnail.Thumbnail)) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.finish(h)
		return
	}
	img, err := d.opts.Renderer.Render(ctx, d.path, slot+1, d.opts.RenderScale)
	d.sem.Release(1)

	if err != nil {
		if ctx.Err() == nil {
			log.Error.Println("cannot generate thumbnail for page", slot+1, err)
		}
		d.finish(h)
		return
	}

	thumb := thumbnail.Thumbnail{Page: slot, Image: img}
	delivered := d.opts.Dispatch(func() {
		if d.finish(h) {
			onReady(thumb)
		}
	})
	if !delivered {
		d.finish(h)
	}
}

// finish drops h from the in-flight set and reports whether it was still
// there, i.e. not cancelled.
func (d *PDF) finish(h RequestHandle) bool {
	d.mu.Lock()
	cancel, ok := d.inflight[h]
	delete(d.inflight, h)
	d.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

func (d *PDF) CancelLoadThumbnail(h RequestHandle) {
	if d.finish(h) {
		log.Trace.Println("cancelled thumbnail request", h)
	}
}

// InFlight returns the number of thumbnail loads not yet delivered or
// cancelled.
func (d *PDF) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// RenderPage rasterizes the one based page for the main view.
func (d *PDF) RenderPage(ctx context.Context, page, scaleTo int) (image.Image, error) {
	if page < 1 || page > len(d.dims) {
		return nil, errors.Errorf("page %d out of range [1, %d]", page, len(d.dims))
	}
	return d.opts.Renderer.Render(ctx, d.path, page, scaleTo)
}

// Bookmark is an outline entry. Page is one based, 0 when the entry has
// no destination in the document.
type Bookmark struct {
	Title    string
	Page     int
	Children []Bookmark
}

// Outline reads the bookmark tree. A document without outline yields an
// empty tree.
func (d *PDF) Outline() ([]Bookmark, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open document")
	}
	defer f.Close()

	bms, err := api.Bookmarks(f, pdfConfig(d.opts.Password))
	if err != nil {
		if errors.Is(err, pdfcpu.ErrNoOutlines) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read outline")
	}
	return convertBookmarks(bms), nil
}

func convertBookmarks(bms []pdfcpu.Bookmark) []Bookmark {
	if len(bms) == 0 {
		return nil
	}
	out := make([]Bookmark, 0, len(bms))
	for _, bm := range bms {
		out = append(out, Bookmark{
			Title:    bm.Title,
			Page:     bm.PageFrom,
			Children: convertBookmarks(bm.Children),
		})
	}
	return out
}

// Close cancels every outstanding load.
func (d *PDF) Close() error {
	d.cancel()

	d.mu.Lock()
	d.inflight = make(map[RequestHandle]context.CancelFunc)
	d.mu.Unlock()
	return nil
}
