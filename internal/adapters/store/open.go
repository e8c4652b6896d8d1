// Package store selects an identity store backend by name.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/dropship/internal/adapters/store/pebble"
	"github.com/bft-labs/dropship/internal/adapters/store/sqlite"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// Supported backend names.
const (
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
)

// Drivers lists the accepted driver names.
var Drivers = []string{DriverSQLite, DriverPebble}

// Open creates the store for driver at path. For sqlite path is the database
// file; for pebble it is a directory. Parent directories are created.
func Open(driver, path string) (ports.IdentityStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: store path is empty", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	switch driver {
	case DriverSQLite, "":
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPebble:
		s, err := pebble.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidConfig, driver)
	}
}

// DefaultPath returns the store location inside stateDir for driver.
func DefaultPath(driver, stateDir string) string {
	if driver == DriverPebble {
		return filepath.Join(stateDir, "records")
	}
	return filepath.Join(stateDir, "records.db")
}
