// Package config assembles the build pipeline from an immutable
// configuration value constructed once at process start. Defaults can be
// overridden by an optional YAML file; nothing in the pipeline reads
// ambient global state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default directory layout, relative to the working directory.
const (
	DefaultDownloadDir = "downloads"
	DefaultBuildDir    = "build"
	DefaultDistDir     = "dist"
	DefaultToolsDir    = "build/tools"
)

// DefaultCodiumVersion pins the VSCodium release the Cursor files are
// overlaid onto. Bump deliberately: the overlay assumes the layout of this
// release line.
const DefaultCodiumVersion = "1.91.1.24193"

// Config is the immutable configuration for one invocation.
type Config struct {
	Product       string `yaml:"product"`
	CursorVersion string `yaml:"cursor_version"`
	CodiumVersion string `yaml:"codium_version"`
	DownloadDir   string `yaml:"download_dir"`
	BuildDir      string `yaml:"build_dir"`
	DistDir       string `yaml:"dist_dir"`
	ToolsDir      string `yaml:"tools_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Product:       "cursor",
		CursorVersion: "latest",
		CodiumVersion: DefaultCodiumVersion,
		DownloadDir:   DefaultDownloadDir,
		BuildDir:      DefaultBuildDir,
		DistDir:       DefaultDistDir,
		ToolsDir:      DefaultToolsDir,
	}
}

// Load reads a YAML override file on top of the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg := Default()
	apply(&cfg.Product, overlay.Product)
	apply(&cfg.CursorVersion, overlay.CursorVersion)
	apply(&cfg.CodiumVersion, overlay.CodiumVersion)
	apply(&cfg.DownloadDir, overlay.DownloadDir)
	apply(&cfg.BuildDir, overlay.BuildDir)
	apply(&cfg.DistDir, overlay.DistDir)
	apply(&cfg.ToolsDir, overlay.ToolsDir)
	return cfg, nil
}

func apply(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
