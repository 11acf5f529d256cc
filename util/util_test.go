package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocPathToName(t *testing.T) {
	name, ext := DocPathToName("/tmp/some/Report.Final.PDF")
	assert.Equal(t, "Report.Final", name)
	assert.Equal(t, "pdf", ext)

	name, ext = DocPathToName("notes")
	assert.Equal(t, "notes", name)
	assert.Equal(t, "", ext)
}

func TestIsFileTypeSupported(t *testing.T) {
	assert.True(t, IsFileTypeSupported(PDF))
	assert.False(t, IsFileTypeSupported(ZIP))
	assert.False(t, IsFileTypeSupported("epub"))
	assert.False(t, IsFileTypeSupported(""))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, ClampInt(-3, 1, 10))
	assert.Equal(t, 10, ClampInt(30, 1, 10))
	assert.Equal(t, 5, ClampInt(5, 1, 10))
	assert.Equal(t, 0.25, ClampFloat(0.1, 0.25, 4))
	assert.Equal(t, 4.0, ClampFloat(8, 0.25, 4))
}
