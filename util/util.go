package util

import (
	"path"
	"strings"
)

const (
	PDF = "pdf"
	// ZIP is the extension of exported thumbnail bundles.
	ZIP = "zip"
)

// documents the viewer can open
var supportedExt = map[string]bool{
	PDF: true,
}

// DocPathToName splits a file path into the document name and its lower
// cased extension.
func DocPathToName(p string) (name string, ext string) {
	name = path.Base(p)
	ext = strings.ToLower(path.Ext(name))
	if ext != "" {
		name = strings.TrimSuffix(name, path.Ext(name))
		ext = ext[1:]
	}
	return
}

func IsFileTypeSupported(ext string) bool {
	return supportedExt[ext]
}

func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func ClampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
