package shell

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/joagonca/docview/archive"
	"github.com/joagonca/docview/config"
	"github.com/joagonca/docview/document"
	"github.com/joagonca/docview/events"
	"github.com/joagonca/docview/util"
	"github.com/joagonca/docview/viewer"
	"github.com/pkg/errors"
)

func openCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "open",
		Help:      "open a pdf document",
		Completer: fileCompleter,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("missing document path"))
				return
			}
			ctx.scrollTop = 0
			err := ctx.ctrl.Open(background(), c.Args[0])
			if err == document.ErrPasswordRequired {
				c.Print("password: ")
				err = ctx.ctrl.OpenWithPassword(background(), c.Args[0], c.ReadPassword())
			}
			if err != nil {
				c.Err(err)
				return
			}
			ctx.publishViewport()
		},
	}
}

func closeCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "close",
		Help: "close the current document",
		Func: func(c *ishell.Context) {
			if err := ctx.ctrl.CloseDocument(); err != nil {
				c.Err(err)
			}
		},
	}
}

func scrollCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "scroll",
		Help: "scroll the thumbnail panel to an offset",
		Func: func(c *ishell.Context) {
			top, ok := parseFloatArg(c, "offset")
			if !ok {
				return
			}
			ctx.scrollTop = top
			ctx.publishViewport()
		},
	}
}

func resizeCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "resize",
		Help: "set the thumbnail panel height",
		Func: func(c *ishell.Context) {
			h, ok := parseFloatArg(c, "height")
			if !ok {
				return
			}
			ctx.height = h
			ctx.publishViewport()
		},
	}
}

func renderCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "render",
		Help: "render the current page to a png file",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("missing output path"))
				return
			}
			if err := ctx.ctrl.RenderCurrentPage(background(), c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			c.Println("written", c.Args[0])
		},
	}
}

func suspendCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "suspend",
		Help: "signal the start of a page render",
		Func: func(c *ishell.Context) {
			ctx.ctrl.Bus().RenderStarted.Publish(events.RenderStarted{Page: ctx.ctrl.State().Page})
		},
	}
}

func resumeCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "resume",
		Help: "signal the end of a page render",
		Func: func(c *ishell.Context) {
			ctx.ctrl.Bus().RenderFinished.Publish(events.RenderFinished{Page: ctx.ctrl.State().Page})
		},
	}
}

func formatSlots(slots []int) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = fmt.Sprint(s + 1)
	}
	return strings.Join(parts, " ")
}

func statusCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "status",
		Help: "show viewer and thumbnail state",
		Func: func(c *ishell.Context) {
			st := ctx.ctrl.Status()
			if st.Path == "" {
				c.Println("no document")
			} else {
				c.Printf("%s: page %d/%d, zoom %.2f, tool %s\n", st.Path, st.Page, st.PageCount, st.Zoom, st.ToolMode)
			}
			if st.PageWidth > 0 {
				c.Printf("page size %.0fx%.0f pt\n", st.PageWidth, st.PageHeight)
			}
			c.Printf("panel: visible=%t offset=%.0f height=%.0f suspended=%t\n", st.SidePanelVisible, st.ScrollTop, st.Height, st.Suspended)
			c.Println("requested:", formatSlots(st.Pending))
			c.Println("loaded:   ", formatSlots(st.Loaded))
			c.Printf("user %q admin=%t readonly=%t\n", st.User, st.Admin, st.ReadOnly)
		},
	}
}

func pageCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "page",
		Help: "go to a page",
		Func: func(c *ishell.Context) {
			page, ok := parseIntArg(c, "page")
			if !ok {
				return
			}
			if err := ctx.ctrl.SetPage(page); err != nil {
				c.Err(err)
			}
		},
	}
}

func navCmd(name, help string, fn func() error) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			if err := fn(); err != nil {
				c.Err(err)
			}
		},
	}
}

func nextCmd(ctx *ShellCtxt) *ishell.Cmd {
	return navCmd("next", "go to the next page", ctx.ctrl.NextPage)
}

func prevCmd(ctx *ShellCtxt) *ishell.Cmd {
	return navCmd("prev", "go to the previous page", ctx.ctrl.PrevPage)
}

func firstCmd(ctx *ShellCtxt) *ishell.Cmd {
	return navCmd("first", "go to the first page", ctx.ctrl.FirstPage)
}

func lastCmd(ctx *ShellCtxt) *ishell.Cmd {
	return navCmd("last", "go to the last page", ctx.ctrl.LastPage)
}

func zoomCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "zoom",
		Help: "set the zoom factor",
		Func: func(c *ishell.Context) {
			zoom, ok := parseFloatArg(c, "zoom")
			if !ok {
				return
			}
			if err := ctx.ctrl.SetZoom(zoom); err != nil {
				c.Err(err)
				return
			}
			c.Printf("zoom %.2f\n", ctx.ctrl.State().Zoom)
		},
	}
}

func toolCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "tool",
		Help: "switch the tool mode",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println(ctx.ctrl.State().ToolMode)
				return
			}
			if !ctx.ctrl.SetToolMode(viewer.ToolMode(c.Args[0])) {
				c.Err(errors.Errorf("unknown tool mode %s", c.Args[0]))
			}
		},
	}
}

func panelCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "panel",
		Help: "toggle the thumbnail panel",
		Func: func(c *ishell.Context) {
			if ctx.ctrl.ToggleSidePanel() {
				c.Println("panel shown")
			} else {
				c.Println("panel hidden")
			}
		},
	}
}

func thumbCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "thumb",
		Help: "select the thumbnail of a page",
		Func: func(c *ishell.Context) {
			page, ok := parseIntArg(c, "page")
			if !ok {
				return
			}
			top, err := ctx.ctrl.SelectThumbnail(page - 1)
			if err != nil {
				c.Err(err)
				return
			}
			ctx.scrollTop = top
		},
	}
}

func evictCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "evict",
		Help: "drop the thumbnail of a page",
		Func: func(c *ishell.Context) {
			page, ok := parseIntArg(c, "page")
			if !ok {
				return
			}
			if err := ctx.ctrl.Evict(page - 1); err != nil {
				c.Err(err)
			}
		},
	}
}

func exportCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "export",
		Help: "write the loaded thumbnails to a zip bundle",
		Func: func(c *ishell.Context) {
			zipPath, err := ctx.ctrl.ExportThumbnails()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("written", zipPath)
		},
	}
}

func annotationsCmd(ctx *ShellCtxt) *ishell.Cmd {
	cmd := &ishell.Cmd{
		Name: "annotations",
		Help: "load, save or import annotations",
		Func: func(c *ishell.Context) {
			c.Println(ctx.ctrl.XFDF())
		},
	}
	cmd.AddCmd(&ishell.Cmd{
		Name: "load",
		Help: "reload annotations from the server",
		Func: func(c *ishell.Context) {
			if err := ctx.ctrl.LoadAnnotations(background()); err != nil {
				c.Err(err)
			}
		},
	})
	cmd.AddCmd(&ishell.Cmd{
		Name: "save",
		Help: "send annotations to the server",
		Func: func(c *ishell.Context) {
			if err := ctx.ctrl.SaveAnnotations(background()); err != nil {
				c.Err(err)
				return
			}
			c.Println("annotations saved")
		},
	})
	cmd.AddCmd(&ishell.Cmd{
		Name:      "import",
		Help:      "replace annotations with a local xfdf file",
		Completer: fileCompleter,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("missing xfdf path"))
				return
			}
			if err := ctx.ctrl.ImportAnnotations(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	})
	return cmd
}

func userCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "user",
		Help: "set the annotation user: user <name> [admin] [readonly]",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Println(ctx.ctrl.State().User)
				return
			}
			admin, readOnly := false, false
			for _, flag := range c.Args[1:] {
				switch flag {
				case "admin":
					admin = true
				case "readonly":
					readOnly = true
				default:
					c.Err(errors.Errorf("unknown flag %s", flag))
					return
				}
			}
			for _, err := range []error{
				ctx.ctrl.SetAnnotationUser(c.Args[0]),
				ctx.ctrl.SetAdminUser(admin),
				ctx.ctrl.SetReadOnly(readOnly),
			} {
				if err != nil {
					c.Err(err)
					return
				}
			}
		},
	}
}

func printOutline(c *ishell.Context, bms []document.Bookmark, depth int) {
	for _, bm := range bms {
		if bm.Page > 0 {
			c.Printf("%s%s .... %d\n", strings.Repeat("  ", depth), bm.Title, bm.Page)
		} else {
			c.Printf("%s%s\n", strings.Repeat("  ", depth), bm.Title)
		}
		printOutline(c, bm.Children, depth+1)
	}
}

func outlineCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "outline",
		Help: "show the bookmarks of the document",
		Func: func(c *ishell.Context) {
			bms, err := ctx.ctrl.Outline()
			if err != nil {
				c.Err(err)
				return
			}
			if len(bms) == 0 {
				c.Println("no bookmarks")
				return
			}
			printOutline(c, bms, 0)
		},
	}
}

func downloadCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "download",
		Help:      "save a copy of the document",
		Completer: fileCompleter,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("missing destination path"))
				return
			}
			if err := ctx.ctrl.Download(c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			c.Println("written", c.Args[0])
		},
	}
}

func slotHeightCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "slotheight",
		Help: "set the height of a thumbnail slot",
		Func: func(c *ishell.Context) {
			h, ok := parseFloatArg(c, "height")
			if !ok {
				return
			}
			if err := ctx.ctrl.SetSlotHeight(h); err != nil {
				c.Err(err)
			}
		},
	}
}

func bundleCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "bundle",
		Help:      "show the content of an exported thumbnail bundle",
		Completer: fileCompleter,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("missing bundle path"))
				return
			}
			if _, ext := util.DocPathToName(c.Args[0]); ext != util.ZIP {
				c.Err(errors.Errorf("not a zip bundle: %s", c.Args[0]))
				return
			}
			z, err := archive.ReadBundle(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s (%s), %d pages, size %d\n", z.Content.Name, z.UUID, z.Content.PageCount, z.Content.Target)
			c.Println("thumbnails:", formatSlots(z.Content.Thumbnails))
		},
	}
}

func configCmd(ctx *ShellCtxt) *ishell.Cmd {
	cmd := &ishell.Cmd{
		Name: "config",
		Help: "show or save the configuration",
		Func: func(c *ishell.Context) {
			cfg := ctx.ctrl.Config()
			c.Printf("thumbnail: target=%d slot_height=%.0f\n", cfg.Thumbnail.Target, cfg.Thumbnail.SlotHeight)
			c.Printf("viewer: zoom=%.2f [%.2f, %.2f]\n", cfg.Viewer.Zoom, cfg.Viewer.MinZoom, cfg.Viewer.MaxZoom)
			c.Printf("annotations: server=%q user=%q\n", cfg.Annotations.ServerURL, cfg.Annotations.User)
		},
	}
	cmd.AddCmd(&ishell.Cmd{
		Name: "save",
		Help: "write the current settings to the config file",
		Func: func(c *ishell.Context) {
			if ctx.configPath == "" {
				c.Err(errors.New("no config file"))
				return
			}
			if err := config.SaveConfig(ctx.ctrl.Config(), ctx.configPath); err != nil {
				c.Err(err)
				return
			}
			c.Println("written", ctx.configPath)
		},
	})
	return cmd
}
