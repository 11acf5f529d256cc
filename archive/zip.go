package archive

import (
	"archive/zip"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Zip is a thumbnail bundle read back from disk.
type Zip struct {
	UUID    string
	Content Content
	// Thumbnails holds the encoded JPEG of each page present.
	Thumbnails map[int][]byte
}

func NewZip() *Zip {
	return &Zip{Thumbnails: make(map[int][]byte)}
}

// Read populates the bundle from r.
func (z *Zip) Read(r io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return errors.Wrap(err, "can't open zip")
	}
	if z.Thumbnails == nil {
		z.Thumbnails = make(map[int][]byte)
	}

	for _, f := range zr.File {
		name := f.Name
		switch {
		case strings.HasSuffix(name, ".content"):
			z.UUID = strings.TrimSuffix(name, ".content")
			data, err := readFile(f)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &z.Content); err != nil {
				return errors.Wrap(err, "can't parse content")
			}
		case strings.Contains(name, ".thumbnails/") && path.Ext(name) == ".jpg":
			page, err := strconv.Atoi(strings.TrimSuffix(path.Base(name), ".jpg"))
			if err != nil {
				return errors.Wrapf(err, "bad thumbnail entry %s", name)
			}
			data, err := readFile(f)
			if err != nil {
				return err
			}
			z.Thumbnails[page] = data
		}
	}

	if z.UUID == "" {
		return errors.New("bundle has no content file")
	}
	return nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %s", f.Name)
	}
	defer rc.Close()
	return ioutil.ReadAll(rc)
}

// ReadBundle reads the bundle stored at srcPath.
func ReadBundle(srcPath string) (*Zip, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return nil, errors.Wrap(err, "can't open bundle")
	}
	defer file.Close()
	fi, err := file.Stat()
	if err != nil {
		return nil, err
	}
	z := NewZip()
	if err := z.Read(file, fi.Size()); err != nil {
		return nil, err
	}
	return z, nil
}
