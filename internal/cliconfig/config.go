package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bft-labs/dropship/internal/adapters/store"
	"github.com/bft-labs/dropship/internal/domain"
)

// DefaultListenAddr is where `dropship serve` listens unless configured.
const DefaultListenAddr = ":8000"

// Config holds CLI configuration for dropship.
type Config struct {
	FolderPath string
	ReceiveURL string
	Bulk       bool

	PaceDelay   time.Duration
	HTTPTimeout time.Duration

	StoreDriver string
	StorePath   string
	StateDir    string

	ListenAddr string
	LogLevel   string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PaceDelay:   time.Second,
		HTTPTimeout: 30 * time.Second,
		StoreDriver: store.DriverSQLite,
		StateDir:    "", // Derived during Validate
		ListenAddr:  DefaultListenAddr,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.FolderPath == "" {
		return fmt.Errorf("%w: folder path is required", domain.ErrInvalidConfig)
	}
	if c.ReceiveURL == "" {
		return fmt.Errorf("%w: receive url is required", domain.ErrInvalidConfig)
	}

	u, err := url.Parse(c.ReceiveURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: receive url %q must be an absolute http(s) url", domain.ErrInvalidConfig, c.ReceiveURL)
	}

	if c.PaceDelay < 0 {
		return fmt.Errorf("%w: pace delay must not be negative", domain.ErrInvalidConfig)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http timeout must not be negative", domain.ErrInvalidConfig)
	}

	c.StoreDriver = strings.ToLower(c.StoreDriver)
	if c.StoreDriver == "" {
		c.StoreDriver = store.DriverSQLite
	}
	if c.StoreDriver != store.DriverSQLite && c.StoreDriver != store.DriverPebble {
		return fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidConfig, c.StoreDriver)
	}

	if c.StateDir == "" {
		c.StateDir = defaultStateDir()
	}
	if c.StorePath == "" {
		c.StorePath = store.DefaultPath(c.StoreDriver, c.StateDir)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	return nil
}

// defaultStateDir returns ~/.dropship, or .dropship when there is no home.
func defaultStateDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dropship")
	}
	return ".dropship"
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses an environment-style boolean.
// "true", "1" and "yes" (any case) are true, anything else is false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		*dst = true
	default:
		*dst = false
	}
}
