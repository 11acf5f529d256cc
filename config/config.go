package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/joagonca/docview/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultConfigDir  = "docview"
	defaultConfigFile = "docview.yaml"

	DefaultThumbnailTarget = 150
	DefaultSlotHeight      = 200
	DefaultRenderScale     = 300
	DefaultPageScale       = 1200
	DefaultConcurrency     = 4
)

type ThumbnailConfig struct {
	// Target is the length of the longer side of a displayed thumbnail.
	Target int `yaml:"target"`
	// SlotHeight is the outer height of one thumbnail container.
	SlotHeight float64 `yaml:"slot_height"`
	// RenderScale is the resolution pages are rasterized at before scaling.
	RenderScale int `yaml:"render_scale"`
	Concurrency int `yaml:"concurrency"`
}

type ViewerConfig struct {
	Zoom      float64 `yaml:"zoom"`
	MinZoom   float64 `yaml:"min_zoom"`
	MaxZoom   float64 `yaml:"max_zoom"`
	PageScale int     `yaml:"page_scale"`
}

type AnnotationConfig struct {
	ServerURL  string `yaml:"server_url"`
	DocumentID string `yaml:"document_id"`
	User       string `yaml:"user"`
	Admin      bool   `yaml:"admin"`
	ReadOnly   bool   `yaml:"read_only"`
	Secret     string `yaml:"secret"`
}

type Config struct {
	Thumbnail   ThumbnailConfig  `yaml:"thumbnail"`
	Viewer      ViewerConfig     `yaml:"viewer"`
	Annotations AnnotationConfig `yaml:"annotations"`
}

func Default() Config {
	return Config{
		Thumbnail: ThumbnailConfig{
			Target:      DefaultThumbnailTarget,
			SlotHeight:  DefaultSlotHeight,
			RenderScale: DefaultRenderScale,
			Concurrency: DefaultConcurrency,
		},
		Viewer: ViewerConfig{
			Zoom:      1,
			MinZoom:   0.05,
			MaxZoom:   10,
			PageScale: DefaultPageScale,
		},
	}
}

// ConfigPath returns the location of the configuration file. DOCVIEW_CONFIG
// takes precedence over the user config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv("DOCVIEW_CONFIG"); p != "" {
		return p, nil
	}

	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve home directory")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile), nil
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	content, err := ioutil.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Trace.Println("config file not found, using defaults:", path)
	case err != nil:
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	default:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "failed to parse config %s", path)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "failed to create config dir")
	}
	return ioutil.WriteFile(path, content, 0600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DOCVIEW_ANNOTATION_SERVER"); v != "" {
		c.Annotations.ServerURL = v
	}
	if v := os.Getenv("DOCVIEW_USER"); v != "" {
		c.Annotations.User = v
	}
}

func (c *Config) normalize() {
	d := Default()
	if c.Thumbnail.Target <= 0 {
		c.Thumbnail.Target = d.Thumbnail.Target
	}
	if c.Thumbnail.SlotHeight <= 0 {
		c.Thumbnail.SlotHeight = d.Thumbnail.SlotHeight
	}
	if c.Thumbnail.RenderScale <= 0 {
		c.Thumbnail.RenderScale = d.Thumbnail.RenderScale
	}
	if c.Thumbnail.Concurrency <= 0 {
		c.Thumbnail.Concurrency = d.Thumbnail.Concurrency
	}
	if c.Viewer.MinZoom <= 0 {
		c.Viewer.MinZoom = d.Viewer.MinZoom
	}
	if c.Viewer.MaxZoom < c.Viewer.MinZoom {
		c.Viewer.MaxZoom = d.Viewer.MaxZoom
	}
	if c.Viewer.Zoom <= 0 {
		c.Viewer.Zoom = d.Viewer.Zoom
	}
	if c.Viewer.PageScale <= 0 {
		c.Viewer.PageScale = d.Viewer.PageScale
	}
}
