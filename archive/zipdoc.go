package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strconv"
	"time"

	uuid "github.com/google/uuid"
	"github.com/joagonca/docview/log"
	"github.com/joagonca/docview/thumbnail"
	"github.com/joagonca/docview/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const encodeWorkers = 4

// Content describes a thumbnail bundle.
type Content struct {
	FileType   string `json:"fileType"`
	Name       string `json:"visibleName"`
	PageCount  int    `json:"pageCount"`
	Thumbnails []int  `json:"thumbnails"`
	Target     int    `json:"thumbnailSize"`
	CreatedAt  string `json:"createdAt"`
}

func NewID() string {
	return uuid.New().String()
}

func UnixTimestamp() string {
	t := time.Now().UnixNano() / 1000000
	return strconv.FormatInt(t, 10)
}

func thumbnailPath(id string, page int) string {
	return fmt.Sprintf("%s.thumbnails/%d.jpg", id, page)
}

// CreateThumbnailBundle writes the materialized thumbnails of a document to
// a zip file in the temp dir and returns its path. thumbs is keyed by zero
// based page.
func CreateThumbnailBundle(id, name string, pageCount, target int, thumbs map[int]thumbnail.Thumbnail) (zipPath string, err error) {
	pages := make([]int, 0, len(thumbs))
	for page := range thumbs {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	encoded := make([][]byte, len(pages))
	var g errgroup.Group
	g.SetLimit(encodeWorkers)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			data, err := thumbnail.EncodeJPEG(thumbs[page], target)
			if err != nil {
				return errors.Wrapf(err, "page %d", page+1)
			}
			encoded[i] = data
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		log.Error.Println("cannot encode thumbnails", err)
		return
	}

	tmp, err := ioutil.TempFile("", "docviewzip")
	if err != nil {
		log.Error.Println("failed to create tmpfile for bundle", err)
		return
	}
	defer func() {
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(tmp.Name())
			zipPath = ""
		}
	}()

	c := Content{
		FileType:   util.PDF,
		Name:       name,
		PageCount:  pageCount,
		Thumbnails: pages,
		Target:     target,
		CreatedAt:  UnixTimestamp(),
	}
	if err = writeBundle(tmp, id, c, encoded); err != nil {
		return
	}
	zipPath = tmp.Name()
	return
}

// writeBundle writes the zip entries of a bundle. encoded holds the JPEG
// of each page in c.Thumbnails.
func writeBundle(out io.Writer, id string, c Content, encoded [][]byte) error {
	w := zip.NewWriter(out)

	for i, page := range c.Thumbnails {
		f, err := w.Create(thumbnailPath(id, page))
		if err != nil {
			log.Error.Println("failed to create thumbnail entry in zip file", err)
			return err
		}
		if _, err := f.Write(encoded[i]); err != nil {
			return errors.Wrapf(err, "failed to write thumbnail of page %d", page+1)
		}
	}

	// the pagedata entry is empty
	if _, err := w.Create(fmt.Sprintf("%s.pagedata", id)); err != nil {
		log.Error.Println("failed to create pagedata entry in zip file", err)
		return err
	}

	cbytes, err := json.Marshal(c)
	if err != nil {
		log.Error.Println("failed to serialize content file", err)
		return err
	}
	f, err := w.Create(fmt.Sprintf("%s.content", id))
	if err != nil {
		log.Error.Println("failed to create content entry in zip file", err)
		return err
	}
	if _, err := f.Write(cbytes); err != nil {
		return errors.Wrap(err, "failed to write content file")
	}

	return w.Close()
}
