package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// Renderer rasterizes a single page of a document file.
type Renderer interface {
	// Render draws the one based page so that its longer side is scaleTo
	// pixels.
	Render(ctx context.Context, path string, page, scaleTo int) (image.Image, error)
}

// PasswordRenderer is a Renderer that can open encrypted documents.
type PasswordRenderer interface {
	Renderer
	WithPassword(password string) Renderer
}

// Pdftoppm renders pages with poppler's pdftoppm.
type Pdftoppm struct {
	// Binary defaults to "pdftoppm" looked up in PATH.
	Binary string
	// Password is passed as the user password.
	Password string
}

func (p Pdftoppm) WithPassword(password string) Renderer {
	p.Password = password
	return p
}

func (p Pdftoppm) Render(ctx context.Context, path string, page, scaleTo int) (image.Image, error) {
	binary := p.Binary
	if binary == "" {
		binary = "pdftoppm"
	}

	tmpDir, err := os.MkdirTemp("", "docview-page-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	// with -singlefile the output is <prefix>.png
	prefix := filepath.Join(tmpDir, "page")
	pageArg := fmt.Sprint(page)

	args := []string{
		"-png",
		"-singlefile",
		"-f", pageArg,
		"-l", pageArg,
		"-scale-to", fmt.Sprint(scaleTo),
	}
	if p.Password != "" {
		args = append(args, "-upw", p.Password)
	}
	args = append(args, path, prefix)

	cmd := exec.CommandContext(ctx, binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(err, "pdftoppm failed on page %d: %s (ensure 'pdftoppm' is installed, part of poppler-utils)", page, stderr.String())
	}

	imgFile, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open rendered image")
	}
	defer imgFile.Close()

	img, err := png.Decode(imgFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode PNG")
	}
	return img, nil
}
