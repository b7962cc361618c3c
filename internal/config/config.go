// Package config loads the comfyctl TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const fileName = "config.toml"

// Config is the application configuration. A missing file means defaults;
// unknown keys in the file are ignored.
type Config struct {
	ServerURL     string `toml:"server_url"`
	DefaultPreset string `toml:"default_preset"`
	TimeoutSec    int    `toml:"timeout_sec"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:     "http://127.0.0.1:8000/",
		DefaultPreset: "default",
	}
}

// Path returns the config file path under the data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, fileName)
}

// Load reads the config file under dataDir, falling back to defaults when it
// does not exist. The server URL is normalized to end with a slash.
func Load(dataDir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration, creating the data directory if needed.
func (c *Config) Save(dataDir string) error {
	c.normalize()

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(Path(dataDir), data, 0600)
}

func (c *Config) normalize() {
	if c.ServerURL == "" {
		c.ServerURL = Default().ServerURL
	}
	if !strings.HasSuffix(c.ServerURL, "/") {
		c.ServerURL += "/"
	}
	if c.DefaultPreset == "" {
		c.DefaultPreset = Default().DefaultPreset
	}
}
