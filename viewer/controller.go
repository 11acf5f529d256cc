package viewer

import (
	"context"
	"image"
	"image/png"
	"io"
	"io/ioutil"
	"math"
	"net/http"
	"os"
	"sync"

	"github.com/joagonca/docview/annotations"
	"github.com/joagonca/docview/archive"
	"github.com/joagonca/docview/config"
	"github.com/joagonca/docview/document"
	"github.com/joagonca/docview/events"
	"github.com/joagonca/docview/log"
	"github.com/joagonca/docview/scheduler"
	"github.com/joagonca/docview/thumbnail"
	"github.com/joagonca/docview/util"
	"github.com/pkg/errors"
)

var (
	ErrClosed     = errors.New("viewer is closed")
	ErrNoDocument = errors.New("no document loaded")
)

const opsBuffer = 256

// Document is what the viewer needs from an open document.
type Document interface {
	document.Handle
	Path() string
	// PageSize returns the media size of the zero based page in points.
	PageSize(slot int) (width, height float64, ok bool)
	Outline() ([]document.Bookmark, error)
	RenderPage(ctx context.Context, page, scaleTo int) (image.Image, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string, opts document.Options) (Document, error)

func OpenPDF(path string, opts document.Options) (Document, error) {
	_, ext := util.DocPathToName(path)
	if !util.IsFileTypeSupported(ext) {
		return nil, errors.Errorf("unsupported file type %q", ext)
	}
	doc, err := document.OpenPDF(path, opts)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type Options struct {
	Config     config.Config
	Bus        *events.Bus
	Open       Opener
	Renderer   document.Renderer
	HTTPClient *http.Client
}

// Controller owns the viewer state and the thumbnail scheduler. All state
// changes happen on a single control goroutine; the exported methods are
// safe to call from any other goroutine.
//
// Event handlers subscribed on the bus must not block and must not call
// back into the Controller synchronously.
type Controller struct {
	cfg      config.Config
	bus      *events.Bus
	open     Opener
	renderer document.Renderer
	subs     events.Group

	ops      chan func()
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	// owned by the control goroutine
	sched  *scheduler.Scheduler
	doc    Document
	state  State
	view   events.ViewportChanged
	// number of page renders in progress
	renders int
	thumbs map[int]thumbnail.Thumbnail
	xfdf   string
	annots *annotations.Client
}

func New(opts Options) *Controller {
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Open == nil {
		opts.Open = OpenPDF
	}
	cfg := opts.Config

	c := &Controller{
		cfg:      cfg,
		bus:      opts.Bus,
		open:     opts.Open,
		renderer: opts.Renderer,
		ops:      make(chan func(), opsBuffer),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		thumbs:   make(map[int]thumbnail.Thumbnail),
		xfdf:     annotations.EmptyXFDF,
		state: State{
			Zoom:             cfg.Viewer.Zoom,
			ToolMode:         ToolPan,
			SidePanelVisible: true,
			User:             cfg.Annotations.User,
			Admin:            cfg.Annotations.Admin,
			ReadOnly:         cfg.Annotations.ReadOnly,
		},
		annots: &annotations.Client{
			ServerURL:  cfg.Annotations.ServerURL,
			DocID:      cfg.Annotations.DocumentID,
			User:       cfg.Annotations.User,
			Admin:      cfg.Annotations.Admin,
			Secret:     cfg.Annotations.Secret,
			HTTPClient: opts.HTTPClient,
		},
	}
	c.sched = scheduler.New(scheduler.Options{
		SlotHeight: cfg.Thumbnail.SlotHeight,
		Target:     cfg.Thumbnail.Target,
		OnLoaded:   c.thumbnailLoaded,
	})

	c.subs.Add(
		c.bus.ViewportChanged.Subscribe(func(e events.ViewportChanged) {
			c.post(func() {
				c.view = e
				c.syncPanel()
			})
		}),
		c.bus.RenderStarted.Subscribe(func(events.RenderStarted) {
			c.post(c.renderStarted)
		}),
		c.bus.RenderFinished.Subscribe(func(events.RenderFinished) {
			c.post(c.renderFinished)
		}),
	)

	go c.run()
	return c
}

func (c *Controller) Bus() *events.Bus {
	return c.bus
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.quit:
			return
		}
	}
}

// post queues fn on the control goroutine. It reports false once the
// controller is closed.
func (c *Controller) post(fn func()) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.ops <- fn:
		return true
	case <-c.quit:
		return false
	}
}

// do runs fn on the control goroutine and waits for it.
func (c *Controller) do(fn func()) error {
	finished := make(chan struct{})
	if !c.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close drops the bus subscriptions, closes the document and stops the
// control goroutine.
func (c *Controller) Close() error {
	c.subs.Unsubscribe()
	err := c.do(c.closeDocument)
	c.quitOnce.Do(func() { close(c.quit) })
	<-c.done
	if err == ErrClosed {
		return nil
	}
	return err
}

// Thumbnail work stays suspended until the last of overlapping renders
// has finished.
func (c *Controller) renderStarted() {
	c.renders++
	if c.renders == 1 {
		c.sched.BeginRenderSuspension()
	}
}

func (c *Controller) renderFinished() {
	if c.renders == 0 {
		return
	}
	c.renders--
	if c.renders == 0 {
		c.sched.EndRenderSuspension()
	}
}

// syncPanel points the scheduler at the panel viewport. A hidden panel has
// no visible slots.
func (c *Controller) syncPanel() {
	if !c.state.SidePanelVisible {
		c.sched.UpdateViewport(0, 0)
		return
	}
	c.sched.UpdateViewport(c.view.ScrollTop, c.view.Height)
}

func (c *Controller) thumbnailLoaded(slot int, thumb thumbnail.Thumbnail, size thumbnail.Size) {
	c.thumbs[slot] = thumb
	c.bus.ThumbnailLoaded.Publish(events.ThumbnailLoaded{Slot: slot, Size: size})
}

// Open loads the document at path, replacing the current one. Encrypted
// documents fail with document.ErrPasswordRequired.
func (c *Controller) Open(ctx context.Context, path string) error {
	return c.OpenWithPassword(ctx, path, "")
}

// OpenWithPassword is Open for documents protected by a user password.
func (c *Controller) OpenWithPassword(ctx context.Context, path, password string) error {
	doc, err := c.open(path, document.Options{
		Renderer:    c.renderer,
		RenderScale: c.cfg.Thumbnail.RenderScale,
		Concurrency: c.cfg.Thumbnail.Concurrency,
		Dispatch:    c.post,
		Password:    password,
	})
	if err != nil {
		return err
	}

	var annots annotations.Client
	if err := c.do(func() {
		annots = *c.annots
		if annots.DocID == "" {
			annots.DocID, _ = util.DocPathToName(path)
		}
	}); err != nil {
		doc.Close()
		return err
	}
	xfdf := annotations.EmptyXFDF
	if annots.ServerURL != "" {
		xfdf = annots.Load(ctx, annotations.EmptyXFDF)
	}

	err = c.do(func() {
		c.closeDocument()
		c.doc = doc
		c.xfdf = xfdf
		c.annots.DocID = annots.DocID
		c.state.Path = path
		c.state.PageCount = doc.PageCount()
		c.state.Page = 0
		if c.state.PageCount > 0 {
			c.state.Page = 1
		}
		c.sched.Attach(doc)
		c.syncPanel()
		log.Info.Printf("opened %s (%d pages)", path, c.state.PageCount)
		c.bus.DocumentLoaded.Publish(events.DocumentLoaded{Path: path, PageCount: c.state.PageCount})
	})
	if err != nil {
		doc.Close()
	}
	return err
}

// CloseDocument closes the current document, if any.
func (c *Controller) CloseDocument() error {
	return c.do(c.closeDocument)
}

func (c *Controller) closeDocument() {
	if c.doc == nil {
		return
	}
	path := c.state.Path
	c.sched.Detach()
	if err := c.doc.Close(); err != nil {
		log.Error.Println("failed to close document", err)
	}
	c.doc = nil
	c.thumbs = make(map[int]thumbnail.Thumbnail)
	c.xfdf = annotations.EmptyXFDF
	c.state.Path = ""
	c.state.PageCount = 0
	c.state.Page = 0
	c.bus.DocumentClosed.Publish(events.DocumentClosed{Path: path})
}

func (c *Controller) State() (s State) {
	c.do(func() { s = c.state })
	return
}

func (c *Controller) Status() (s Status) {
	c.do(func() {
		s = Status{
			State:     c.state,
			Pending:   c.sched.Pending(),
			Loaded:    c.sched.Loaded(),
			Suspended: c.sched.Suspended(),
			ScrollTop: c.view.ScrollTop,
			Height:    c.view.Height,
		}
		if c.doc != nil {
			s.PageWidth, s.PageHeight, _ = c.doc.PageSize(c.state.Page - 1)
		}
	})
	return
}

// SetSlotHeight changes the height of a thumbnail slot and refills the
// panel.
func (c *Controller) SetSlotHeight(h float64) error {
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return errors.Errorf("invalid slot height %v", h)
	}
	return c.do(func() {
		c.cfg.Thumbnail.SlotHeight = h
		c.sched.SetSlotHeight(h)
		c.syncPanel()
	})
}

// Config returns the configuration with the current viewer settings
// applied, ready to be saved.
func (c *Controller) Config() (cfg config.Config) {
	c.do(func() {
		cfg = c.cfg
		cfg.Viewer.Zoom = c.state.Zoom
		cfg.Annotations.User = c.state.User
		cfg.Annotations.Admin = c.state.Admin
		cfg.Annotations.ReadOnly = c.state.ReadOnly
	})
	return
}

// Outline returns the bookmarks of the current document.
func (c *Controller) Outline() ([]document.Bookmark, error) {
	doc, err := c.currentDoc()
	if err != nil {
		return nil, err
	}
	return doc.Outline()
}

// Download copies the current document file to dst.
func (c *Controller) Download(dst string) error {
	doc, err := c.currentDoc()
	if err != nil {
		return err
	}

	src, err := os.Open(doc.Path())
	if err != nil {
		return errors.Wrap(err, "failed to open document")
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "failed to create download file")
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrap(err, "failed to copy document")
	}
	return out.Close()
}

func (c *Controller) currentDoc() (doc Document, err error) {
	if err = c.do(func() { doc = c.doc }); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNoDocument
	}
	return doc, nil
}

// Evict drops the thumbnail of the zero based slot.
func (c *Controller) Evict(slot int) error {
	return c.do(func() {
		c.sched.Evict(slot)
		delete(c.thumbs, slot)
	})
}

// Thumbnails returns the materialized thumbnails keyed by zero based page.
func (c *Controller) Thumbnails() map[int]thumbnail.Thumbnail {
	thumbs := make(map[int]thumbnail.Thumbnail)
	c.do(func() {
		for k, v := range c.thumbs {
			thumbs[k] = v
		}
	})
	return thumbs
}

// RenderCurrentPage renders the current page at the current zoom into a PNG
// file. Thumbnail loading is suspended while it runs.
func (c *Controller) RenderCurrentPage(ctx context.Context, outPath string) error {
	var (
		doc   Document
		page  int
		scale int
	)
	if err := c.do(func() {
		doc, page = c.doc, c.state.Page
		scale = int(float64(c.cfg.Viewer.PageScale) * c.state.Zoom)
	}); err != nil {
		return err
	}
	if doc == nil {
		return ErrNoDocument
	}

	c.bus.RenderStarted.Publish(events.RenderStarted{Page: page})
	err := renderTo(ctx, doc, page, scale, outPath)
	c.bus.RenderFinished.Publish(events.RenderFinished{Page: page, Err: err})
	return err
}

func renderTo(ctx context.Context, doc Document, page, scale int, outPath string) error {
	img, err := doc.RenderPage(ctx, page, scale)
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrap(err, "failed to encode page")
	}
	return f.Close()
}

// ExportThumbnails writes the loaded thumbnails to a zip bundle and
// returns its path.
func (c *Controller) ExportThumbnails() (string, error) {
	var (
		name  string
		count int
	)
	thumbs := make(map[int]thumbnail.Thumbnail)
	if err := c.do(func() {
		name, _ = util.DocPathToName(c.state.Path)
		count = c.state.PageCount
		for k, v := range c.thumbs {
			thumbs[k] = v
		}
	}); err != nil {
		return "", err
	}
	if count == 0 {
		return "", ErrNoDocument
	}
	return archive.CreateThumbnailBundle(archive.NewID(), name, count, c.cfg.Thumbnail.Target, thumbs)
}

func (c *Controller) XFDF() (xfdf string) {
	c.do(func() { xfdf = c.xfdf })
	return
}

// ImportAnnotations replaces the annotations with the XFDF file at path.
func (c *Controller) ImportAnnotations(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read annotations")
	}
	return c.do(func() { c.xfdf = string(data) })
}

// LoadAnnotations reloads the annotations from the server, keeping the
// current ones when the server has none.
func (c *Controller) LoadAnnotations(ctx context.Context) error {
	var (
		annots annotations.Client
		xfdf   string
	)
	if err := c.do(func() { annots, xfdf = *c.annots, c.xfdf }); err != nil {
		return err
	}
	if annots.ServerURL == "" {
		return annotations.ErrNoServer
	}
	xfdf = annots.Load(ctx, xfdf)
	return c.do(func() { c.xfdf = xfdf })
}

func (c *Controller) SaveAnnotations(ctx context.Context) error {
	var (
		annots annotations.Client
		xfdf   string
	)
	if err := c.do(func() { annots, xfdf = *c.annots, c.xfdf }); err != nil {
		return err
	}
	err := annots.Save(ctx, xfdf)
	c.bus.AnnotationsSaved.Publish(events.AnnotationsSaved{Err: err})
	return err
}
