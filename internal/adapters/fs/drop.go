package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bft-labs/dropship/internal/domain"
)

// Drop writes content into the folder under the base name of name,
// creating the folder if needed. An existing file is overwritten.
func (f *Folder) Drop(name string, r io.Reader) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFileName, name)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	path := filepath.Join(f.dir, base)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", base, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", base, err)
	}
	return path, nil
}
