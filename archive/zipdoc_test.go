package archive

import (
	"archive/zip"
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/joagonca/docview/thumbnail"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThumbnailBundle(t *testing.T) {
	id := NewID()
	thumbs := map[int]thumbnail.Thumbnail{
		4: {Page: 4, Image: image.NewRGBA(image.Rect(0, 0, 600, 300))},
		0: {Page: 0, Image: image.NewRGBA(image.Rect(0, 0, 300, 600))},
	}

	zipPath, err := CreateThumbnailBundle(id, "report", 7, 150, thumbs)
	require.NoError(t, err)
	defer os.Remove(zipPath)

	z, err := ReadBundle(zipPath)
	require.NoError(t, err)
	assert.Equal(t, id, z.UUID)
	assert.Equal(t, "pdf", z.Content.FileType)
	assert.Equal(t, "report", z.Content.Name)
	assert.Equal(t, 7, z.Content.PageCount)
	assert.Equal(t, []int{0, 4}, z.Content.Thumbnails)
	require.Len(t, z.Thumbnails, 2)

	img, err := jpeg.Decode(bytes.NewReader(z.Thumbnails[0]))
	require.NoError(t, err)
	assert.Equal(t, 75, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestCreateThumbnailBundleBadImage(t *testing.T) {
	_, err := CreateThumbnailBundle(NewID(), "x", 1, 150, map[int]thumbnail.Thumbnail{0: {}})
	assert.Error(t, err)
}

func TestReadBundleMissing(t *testing.T) {
	_, err := ReadBundle("/does/not/exist.zip")
	assert.Error(t, err)
}

func TestReadBundleWithoutContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())

	_, err = ReadBundle(path)
	assert.Error(t, err)
}

// failingWriter accepts n bytes and then fails.
type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		written := w.n
		w.n = 0
		return written, errors.New("disk full")
	}
	w.n -= len(p)
	return len(p), nil
}

func TestWriteBundleFails(t *testing.T) {
	c := Content{Name: "x", PageCount: 2, Thumbnails: []int{0, 1}}
	encoded := [][]byte{bytes.Repeat([]byte{1}, 4096), bytes.Repeat([]byte{2}, 4096)}

	for _, n := range []int{0, 50, 200} {
		err := writeBundle(&failingWriter{n: n}, "id", c, encoded)
		assert.Error(t, err, "writer failing after %d bytes", n)
	}

	var buf bytes.Buffer
	require.NoError(t, writeBundle(&buf, "id", c, encoded))
	z := NewZip()
	require.NoError(t, z.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len())))
	assert.Equal(t, "id", z.UUID)
	assert.Len(t, z.Thumbnails, 2)
}
