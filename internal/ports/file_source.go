package ports

import (
	"context"

	"github.com/bft-labs/dropship/internal/domain"
)

// FileSource provides access to the regular files of the watched folder.
type FileSource interface {
	// List returns the names of regular files in lexicographic order.
	// Returns an error wrapping domain.ErrFolderNotFound if the folder is missing.
	List(ctx context.Context) ([]string, error)

	// Read loads the file content and its filesystem identity.
	// The file handle is released before Read returns.
	Read(name string) (domain.LocalFile, error)

	// Dir returns the folder being scanned.
	Dir() string
}
