// Package scheduler keeps the thumbnails of a scrollable side panel
// populated. It requests thumbnails for the slots around the viewport,
// cancels requests that scrolled out of range and stays out of the way
// while the main view renders a page.
//
// A Scheduler is not safe for concurrent use. All of its methods, and the
// thumbnail callbacks it hands to the document, must run on one goroutine.
package scheduler

import (
	"math"
	"sort"

	"github.com/joagonca/docview/document"
	"github.com/joagonca/docview/log"
	"github.com/joagonca/docview/thumbnail"
)

type SlotState int

const (
	Idle SlotState = iota
	Requested
	Loaded
)

func (s SlotState) String() string {
	switch s {
	case Requested:
		return "requested"
	case Loaded:
		return "loaded"
	default:
		return "idle"
	}
}

// LoadedFunc is called when a slot transitions to Loaded.
type LoadedFunc func(slot int, thumb thumbnail.Thumbnail, size thumbnail.Size)

type Options struct {
	// SlotHeight is the outer height of one thumbnail slot.
	SlotHeight float64
	// Target is the longer side of a displayed thumbnail.
	Target   int
	OnLoaded LoadedFunc
}

type pending struct {
	handle document.RequestHandle
	gen    uint64
}

type viewport struct {
	scrollTop float64
	height    float64
}

type Scheduler struct {
	doc  document.Handle
	opts Options

	pending   map[int]pending
	loaded    map[int]thumbnail.Size
	gen       uint64
	suspended bool
	view      viewport
}

func New(opts Options) *Scheduler {
	if opts.Target <= 0 {
		opts.Target = thumbnail.DefaultTarget
	}
	s := &Scheduler{opts: opts}
	s.reset()
	return s
}

func (s *Scheduler) reset() {
	s.pending = make(map[int]pending)
	s.loaded = make(map[int]thumbnail.Size)
}

// Attach starts scheduling for doc, discarding all state of the previous
// document.
func (s *Scheduler) Attach(doc document.Handle) {
	s.doc = doc
	s.reset()
}

// Detach forgets the current document. Outstanding requests are not
// cancelled; their late deliveries are discarded.
func (s *Scheduler) Detach() {
	s.doc = nil
	s.reset()
}

// SetSlotHeight changes the slot height used for the next computation.
func (s *Scheduler) SetSlotHeight(h float64) {
	s.opts.SlotHeight = h
}

// WantedSlots returns the slots that should hold a thumbnail for a viewport
// at scrollTop of the given height: the visible slots plus as many again on
// each side, clamped to the document.
func WantedSlots(scrollTop, viewportHeight, slotHeight float64, totalSlots int) []int {
	if totalSlots <= 0 || slotHeight <= 0 || !finite(scrollTop) || !finite(viewportHeight) {
		return []int{}
	}
	if scrollTop < 0 {
		scrollTop = 0
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}

	// stay in float64 until the window is clamped to the document so huge
	// offsets cannot overflow int
	top := math.Floor(scrollTop / slotHeight)
	bottom := math.Ceil((scrollTop+viewportHeight)/slotHeight) - 1
	visible := bottom - top + 1

	first := math.Max(top-visible, 0)
	last := math.Min(bottom+visible, float64(totalSlots-1))
	if first > last {
		return []int{}
	}

	wanted := []int{}
	for i := int(first); i <= int(last); i++ {
		wanted = append(wanted, i)
	}
	return wanted
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ComputeWantedSlots applies WantedSlots to the attached document.
func (s *Scheduler) ComputeWantedSlots(scrollTop, viewportHeight float64) []int {
	if s.doc == nil {
		return []int{}
	}
	return WantedSlots(scrollTop, viewportHeight, s.opts.SlotHeight, s.doc.PageCount())
}

// UpdateViewport records the viewport and brings the slots in line with it.
func (s *Scheduler) UpdateViewport(scrollTop, viewportHeight float64) {
	s.view = viewport{scrollTop: scrollTop, height: viewportHeight}
	s.Reconcile(s.ComputeWantedSlots(scrollTop, viewportHeight))
}

// Refresh recomputes the wanted slots for the last known viewport.
func (s *Scheduler) Refresh() {
	s.UpdateViewport(s.view.scrollTop, s.view.height)
}

// Reconcile cancels requests for slots outside wanted, then requests every
// wanted slot that is neither requested nor loaded. While suspended only
// the cancellations happen.
func (s *Scheduler) Reconcile(wanted []int) {
	if s.doc == nil {
		return
	}

	want := make(map[int]bool, len(wanted))
	for _, slot := range wanted {
		want[slot] = true
	}

	for _, slot := range s.Pending() {
		if want[slot] {
			continue
		}
		p := s.pending[slot]
		delete(s.pending, slot)
		s.doc.CancelLoadThumbnail(p.handle)
		log.Trace.Println("cancelled thumbnail", slot)
	}

	if s.suspended {
		return
	}

	total := s.doc.PageCount()
	slots := make([]int, 0, len(want))
	for slot := range want {
		if slot >= 0 && slot < total {
			slots = append(slots, slot)
		}
	}
	sort.Ints(slots)

	for _, slot := range slots {
		if _, ok := s.pending[slot]; ok {
			continue
		}
		if _, ok := s.loaded[slot]; ok {
			continue
		}
		s.request(slot)
	}
}

func (s *Scheduler) request(slot int) {
	s.gen++
	gen := s.gen

	// register before issuing so a loader that completes synchronously
	// finds the slot pending
	s.pending[slot] = pending{gen: gen}
	h := s.doc.LoadThumbnailAsync(slot, func(thumb thumbnail.Thumbnail) {
		s.deliver(slot, gen, thumb)
	})
	if p, ok := s.pending[slot]; ok && p.gen == gen {
		p.handle = h
		s.pending[slot] = p
	}
	log.Trace.Println("requested thumbnail", slot)
}

// deliver honors only the most recent request for slot. Generations are
// never reused, including across documents.
func (s *Scheduler) deliver(slot int, gen uint64, thumb thumbnail.Thumbnail) {
	p, ok := s.pending[slot]
	if !ok || p.gen != gen {
		log.Trace.Println("discarded stale thumbnail", slot)
		return
	}
	s.materialize(slot, thumb)
}

// OnThumbnailReady accepts a thumbnail for slot. Deliveries for slots that
// are not pending are discarded.
func (s *Scheduler) OnThumbnailReady(slot int, thumb thumbnail.Thumbnail) {
	if _, ok := s.pending[slot]; !ok {
		log.Trace.Println("discarded stale thumbnail", slot)
		return
	}
	s.materialize(slot, thumb)
}

func (s *Scheduler) materialize(slot int, thumb thumbnail.Thumbnail) {
	delete(s.pending, slot)
	size := thumbnail.Fit(thumb.Width(), thumb.Height(), s.opts.Target)
	s.loaded[slot] = size
	if s.opts.OnLoaded != nil {
		s.opts.OnLoaded(slot, thumb, size)
	}
}

// Evict detaches the thumbnail of slot so it can be requested again.
func (s *Scheduler) Evict(slot int) {
	delete(s.loaded, slot)
}

// BeginRenderSuspension cancels every pending request and holds new ones
// back until EndRenderSuspension.
func (s *Scheduler) BeginRenderSuspension() {
	if s.doc != nil {
		for _, slot := range s.Pending() {
			s.doc.CancelLoadThumbnail(s.pending[slot].handle)
		}
	}
	s.pending = make(map[int]pending)
	s.suspended = true
}

func (s *Scheduler) EndRenderSuspension() {
	s.suspended = false
	s.Refresh()
}

func (s *Scheduler) Suspended() bool {
	return s.suspended
}

func (s *Scheduler) State(slot int) SlotState {
	if _, ok := s.pending[slot]; ok {
		return Requested
	}
	if _, ok := s.loaded[slot]; ok {
		return Loaded
	}
	return Idle
}

// Pending returns the requested slots in ascending order.
func (s *Scheduler) Pending() []int {
	return sortedKeys(s.pending)
}

// Loaded returns the slots holding a thumbnail in ascending order.
func (s *Scheduler) Loaded() []int {
	return sortedKeys(s.loaded)
}

// DisplaySize returns the display size of a loaded slot.
func (s *Scheduler) DisplaySize(slot int) (thumbnail.Size, bool) {
	size, ok := s.loaded[slot]
	return size, ok
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
