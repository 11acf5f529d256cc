package shell

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/joagonca/docview/events"
	"github.com/joagonca/docview/viewer"
	"github.com/pkg/errors"
)

// ShellCtxt is shared by all commands of one shell.
type ShellCtxt struct {
	ctrl       *viewer.Controller
	configPath string
	// last viewport sent to the thumbnail panel
	scrollTop float64
	height    float64
}

func NewShellCtxt(ctrl *viewer.Controller, height float64, configPath string) *ShellCtxt {
	return &ShellCtxt{ctrl: ctrl, height: height, configPath: configPath}
}

func (ctx *ShellCtxt) publishViewport() {
	ctx.ctrl.Bus().ViewportChanged.Publish(events.ViewportChanged{ScrollTop: ctx.scrollTop, Height: ctx.height})
}

func parseFloatArg(c *ishell.Context, name string) (float64, bool) {
	if len(c.Args) != 1 {
		c.Err(errors.Errorf("missing %s", name))
		return 0, false
	}
	v, err := strconv.ParseFloat(c.Args[0], 64)
	if err != nil {
		c.Err(errors.Wrapf(err, "invalid %s", name))
		return 0, false
	}
	return v, true
}

func parseIntArg(c *ishell.Context, name string) (int, bool) {
	if len(c.Args) != 1 {
		c.Err(errors.Errorf("missing %s", name))
		return 0, false
	}
	v, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(errors.Wrapf(err, "invalid %s", name))
		return 0, false
	}
	return v, true
}

func background() context.Context {
	return context.Background()
}

// RunShell starts an interactive shell, or runs args as a single command
// when given. configPath is where "config save" writes to.
func RunShell(ctrl *viewer.Controller, height float64, configPath string, args []string) error {
	shell := ishell.New()
	ctx := NewShellCtxt(ctrl, height, configPath)

	shell.SetPrompt("[docview]>")

	bus := ctrl.Bus()
	var subs events.Group
	subs.Add(
		bus.DocumentLoaded.Subscribe(func(e events.DocumentLoaded) {
			shell.Println(fmt.Sprintf("loaded %s, %d pages", e.Path, e.PageCount))
		}),
		bus.PageChanged.Subscribe(func(e events.PageChanged) {
			shell.Println(fmt.Sprintf("page %d", e.Page))
		}),
		bus.RenderFinished.Subscribe(func(e events.RenderFinished) {
			if e.Err != nil {
				shell.Println(fmt.Sprintf("render of page %d failed: %v", e.Page, e.Err))
			}
		}),
	)
	defer subs.Unsubscribe()

	shell.AddCmd(openCmd(ctx))
	shell.AddCmd(closeCmd(ctx))
	shell.AddCmd(scrollCmd(ctx))
	shell.AddCmd(resizeCmd(ctx))
	shell.AddCmd(renderCmd(ctx))
	shell.AddCmd(suspendCmd(ctx))
	shell.AddCmd(resumeCmd(ctx))
	shell.AddCmd(statusCmd(ctx))
	shell.AddCmd(pageCmd(ctx))
	shell.AddCmd(nextCmd(ctx))
	shell.AddCmd(prevCmd(ctx))
	shell.AddCmd(firstCmd(ctx))
	shell.AddCmd(lastCmd(ctx))
	shell.AddCmd(zoomCmd(ctx))
	shell.AddCmd(toolCmd(ctx))
	shell.AddCmd(panelCmd(ctx))
	shell.AddCmd(thumbCmd(ctx))
	shell.AddCmd(evictCmd(ctx))
	shell.AddCmd(exportCmd(ctx))
	shell.AddCmd(annotationsCmd(ctx))
	shell.AddCmd(userCmd(ctx))
	shell.AddCmd(outlineCmd(ctx))
	shell.AddCmd(downloadCmd(ctx))
	shell.AddCmd(slotHeightCmd(ctx))
	shell.AddCmd(bundleCmd(ctx))
	shell.AddCmd(configCmd(ctx))

	if len(args) > 0 {
		return shell.Process(args...)
	}

	shell.Printf("docview, type help for commands\n")
	shell.Run()
	return nil
}
