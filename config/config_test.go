package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Thumbnail, cfg.Thumbnail)
	assert.Equal(t, 1.0, cfg.Viewer.Zoom)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docview.yaml")
	content := `
thumbnail:
  target: 120
  slot_height: 180
annotations:
  server_url: http://localhost:8080/annots
  document_id: doc-1
  user: alice
  admin: true
`
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Thumbnail.Target)
	assert.Equal(t, 180.0, cfg.Thumbnail.SlotHeight)
	assert.Equal(t, DefaultRenderScale, cfg.Thumbnail.RenderScale)
	assert.Equal(t, DefaultConcurrency, cfg.Thumbnail.Concurrency)
	assert.Equal(t, "http://localhost:8080/annots", cfg.Annotations.ServerURL)
	assert.Equal(t, "doc-1", cfg.Annotations.DocumentID)
	assert.Equal(t, "alice", cfg.Annotations.User)
	assert.True(t, cfg.Annotations.Admin)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docview.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("thumbnail: [1, 2"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnv(t *testing.T) {
	os.Setenv("DOCVIEW_USER", "bob")
	defer os.Unsetenv("DOCVIEW_USER")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Annotations.User)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "docview.yaml")
	cfg := Default()
	cfg.Viewer.Zoom = 2

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Viewer.Zoom)
}

func TestConfigPathEnv(t *testing.T) {
	os.Setenv("DOCVIEW_CONFIG", "/etc/docview.yaml")
	defer os.Unsetenv("DOCVIEW_CONFIG")

	p, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/docview.yaml", p)
}
