package dropship

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/dropship/internal/adapters/store"
	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/domain"
)

// Config holds the settings of a Forwarder.
type Config struct {
	// FolderPath is the watched folder. Required.
	FolderPath string

	// ReceiveURL is the endpoint files are posted to. Required.
	ReceiveURL string

	// Bulk sends all new files in one request instead of one per file.
	Bulk bool

	// PaceDelay is the pause between files in sequential mode.
	// Default: 1 second. Negative disables pacing.
	PaceDelay time.Duration

	// HTTPTimeout bounds each request.
	// Default: 30 seconds
	HTTPTimeout time.Duration

	// StoreDriver is "sqlite" or "pebble".
	// Default: sqlite
	StoreDriver string

	// StorePath locates the identity store.
	// Default: derived from StateDir and StoreDriver
	StorePath string

	// StateDir holds the store and status.json.
	// Default: ~/.dropship
	StateDir string
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PaceDelay == 0 {
		c.PaceDelay = app.DefaultPaceDelay
	}
	if c.PaceDelay < 0 {
		c.PaceDelay = 0
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.StoreDriver == "" {
		c.StoreDriver = store.DriverSQLite
	}
	if c.StateDir == "" {
		if h, err := os.UserHomeDir(); err == nil {
			c.StateDir = filepath.Join(h, ".dropship")
		} else {
			c.StateDir = ".dropship"
		}
	}
	if c.StorePath == "" {
		c.StorePath = store.DefaultPath(c.StoreDriver, c.StateDir)
	}
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.FolderPath == "" {
		return fmt.Errorf("%w: FolderPath is required", domain.ErrInvalidConfig)
	}
	u, err := url.Parse(c.ReceiveURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: ReceiveURL %q must be an absolute http(s) url", domain.ErrInvalidConfig, c.ReceiveURL)
	}
	return nil
}

func (c Config) transferConfig() app.TransferConfig {
	return app.TransferConfig{
		ReceiveURL: c.ReceiveURL,
		Bulk:       c.Bulk,
		PaceDelay:  c.PaceDelay,
	}
}
