package viewer

import (
	"github.com/joagonca/docview/events"
	"github.com/joagonca/docview/util"
)

func (c *Controller) setPage(page int) {
	if c.doc == nil || c.state.PageCount == 0 {
		return
	}
	page = util.ClampInt(page, 1, c.state.PageCount)
	if page == c.state.Page {
		return
	}
	c.state.Page = page
	c.bus.PageChanged.Publish(events.PageChanged{Page: page})
}

// SetPage moves to the one based page, clamped to the document.
func (c *Controller) SetPage(page int) error {
	return c.do(func() { c.setPage(page) })
}

func (c *Controller) FirstPage() error {
	return c.do(func() { c.setPage(1) })
}

func (c *Controller) LastPage() error {
	return c.do(func() { c.setPage(c.state.PageCount) })
}

func (c *Controller) NextPage() error {
	return c.do(func() {
		if c.state.Page <= 0 {
			return
		}
		c.setPage(c.state.Page + 1)
	})
}

func (c *Controller) PrevPage() error {
	return c.do(func() {
		if c.state.Page <= 1 {
			return
		}
		c.setPage(c.state.Page - 1)
	})
}

// SetZoom sets the zoom factor, clamped to the configured bounds.
func (c *Controller) SetZoom(zoom float64) error {
	return c.do(func() {
		zoom = util.ClampFloat(zoom, c.cfg.Viewer.MinZoom, c.cfg.Viewer.MaxZoom)
		if zoom == c.state.Zoom {
			return
		}
		c.state.Zoom = zoom
		c.bus.ZoomChanged.Publish(events.ZoomChanged{Zoom: zoom})
	})
}

// SetToolMode switches to mode; unknown modes are ignored and reported as
// false.
func (c *Controller) SetToolMode(mode ToolMode) (ok bool) {
	c.do(func() {
		if ok = mode.Valid(); ok {
			c.state.ToolMode = mode
		}
	})
	return
}

// ToggleSidePanel shows or hides the thumbnail panel and returns whether
// it is now visible. Hiding it cancels pending thumbnails, showing it
// catches up with the last viewport.
func (c *Controller) ToggleSidePanel() (visible bool) {
	c.do(func() {
		c.state.SidePanelVisible = !c.state.SidePanelVisible
		visible = c.state.SidePanelVisible
		c.syncPanel()
	})
	return
}

func (c *Controller) SetAnnotationUser(user string) error {
	return c.do(func() {
		c.state.User = user
		c.annots.User = user
	})
}

func (c *Controller) SetAdminUser(admin bool) error {
	return c.do(func() {
		c.state.Admin = admin
		c.annots.Admin = admin
	})
}

func (c *Controller) SetReadOnly(readOnly bool) error {
	return c.do(func() { c.state.ReadOnly = readOnly })
}

// ScrollIntoView returns the scroll offset that makes the whole slot
// visible, moving the viewport as little as possible.
func ScrollIntoView(slot int, slotHeight, scrollTop, viewportHeight float64) float64 {
	top := float64(slot) * slotHeight
	bottom := top + slotHeight
	switch {
	case top < scrollTop:
		return top
	case bottom > scrollTop+viewportHeight:
		return bottom - viewportHeight
	default:
		return scrollTop
	}
}

// SelectThumbnail navigates to the page of the zero based slot and scrolls
// the panel so the slot is visible. It returns the new scroll offset.
func (c *Controller) SelectThumbnail(slot int) (scrollTop float64, err error) {
	err = c.do(func() {
		scrollTop = c.view.ScrollTop
		if c.doc == nil || slot < 0 || slot >= c.state.PageCount {
			return
		}
		c.setPage(slot + 1)
		scrollTop = ScrollIntoView(slot, c.cfg.Thumbnail.SlotHeight, c.view.ScrollTop, c.view.Height)
		if scrollTop != c.view.ScrollTop {
			c.view.ScrollTop = scrollTop
			c.syncPanel()
		}
	})
	return
}
