package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to keep files readable.
type FileConfig struct {
	FolderPath  string `toml:"folder_path" yaml:"folder_path"`
	ReceiveURL  string `toml:"receive_url" yaml:"receive_url"`
	Bulk        *bool  `toml:"bulk" yaml:"bulk"`
	PaceDelay   string `toml:"pace_delay" yaml:"pace_delay"`
	HTTPTimeout string `toml:"http_timeout" yaml:"http_timeout"`
	StoreDriver string `toml:"store_driver" yaml:"store_driver"`
	StorePath   string `toml:"store_path" yaml:"store_path"`
	StateDir    string `toml:"state_dir" yaml:"state_dir"`
	ListenAddr  string `toml:"listen_addr" yaml:"listen_addr"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.dropship/config.toml if the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dropship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("folder", fc.FolderPath, &cfg.FolderPath)
	s.setString("receive-url", fc.ReceiveURL, &cfg.ReceiveURL)
	s.setString("store-driver", fc.StoreDriver, &cfg.StoreDriver)
	s.setString("store-path", fc.StorePath, &cfg.StorePath)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("pace", fc.PaceDelay, &cfg.PaceDelay); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("bulk", fc.Bulk, &cfg.Bulk)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
