package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/basalto/engine/core"
)

// Config is the on-disk engine configuration. A missing file is not an
// error: LoadConfig writes the defaults back so users have something
// to edit.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Shaders     ShadersConfig     `toml:"shaders"`
}

type ApplicationConfig struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// Backend selects the native graphics API: "vulkan", "opengl",
	// "directx" or "metal".
	Backend string `toml:"backend"`
	// LogLevel filters engine diagnostics: "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`
}

type ShadersConfig struct {
	// Target selects the translator output format: "spirv", "hlsl" or "msl".
	Target string `toml:"target"`
	// SourceDir and OutputDir drive the offline shader build.
	SourceDir string `toml:"source_dir"`
	OutputDir string `toml:"output_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Basalto",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			Backend:  "vulkan",
			LogLevel: "debug",
		},
		Shaders: ShadersConfig{
			Target:    "spirv",
			SourceDir: "assets/shaders",
			OutputDir: "assets/shaders/bin",
		},
	}
}

// LoadConfig reads the TOML configuration at path. When the file does
// not exist, the defaults are written there and returned.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if werr := cfg.Write(path); werr != nil {
			core.LogWarn("could not write default config to %s: %s", path, werr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Write serializes the configuration to path, creating parent
// directories as needed.
func (c *Config) Write(path string) error {
	raw, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, raw, 0o644)
}
