package thumbnail

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

const DefaultTarget = 150

// Thumbnail is a rasterized page as delivered by a document loader.
type Thumbnail struct {
	Page  int
	Image image.Image
}

func (t Thumbnail) Width() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dx()
}

func (t Thumbnail) Height() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dy()
}

// Size is a display size in pixels.
type Size struct {
	Width  int
	Height int
}

// Fit returns the display size of a width x height image whose longer side
// is forced to target. The shorter side is rounded to whole pixels.
func Fit(width, height, target int) Size {
	if width <= 0 || height <= 0 || target <= 0 {
		return Size{}
	}
	if width > height {
		ratio := float64(width) / float64(target)
		return Size{Width: target, Height: int(math.Round(float64(height) / ratio))}
	}
	ratio := float64(height) / float64(target)
	return Size{Width: int(math.Round(float64(width) / ratio)), Height: target}
}

// Scale resizes the thumbnail image to its display size for target.
func Scale(t Thumbnail, target int) (image.Image, error) {
	if t.Image == nil {
		return nil, errors.New("thumbnail has no image")
	}
	size := Fit(t.Width(), t.Height(), target)
	if size.Width == 0 || size.Height == 0 {
		return nil, errors.Errorf("cannot scale %dx%d image", t.Width(), t.Height())
	}
	return resize.Resize(uint(size.Width), uint(size.Height), t.Image, resize.Lanczos3), nil
}

// EncodeJPEG scales the thumbnail for target and encodes it as JPEG.
func EncodeJPEG(t Thumbnail, target int) ([]byte, error) {
	img, err := Scale(t, target)
	if err != nil {
		return nil, err
	}
	out := &bytes.Buffer{}
	if err := jpeg.Encode(out, img, nil); err != nil {
		return nil, errors.Wrap(err, "failed to encode JPEG")
	}
	return out.Bytes(), nil
}
