package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bft-labs/dropship/internal/domain"
)

// Folder implements ports.FileSource over a single directory.
// Only regular files at the top level are visible; subdirectories,
// symlinks and special files are ignored.
type Folder struct {
	dir string
}

// NewFolder creates a source for dir. The directory does not have to exist yet.
func NewFolder(dir string) *Folder {
	return &Folder{dir: dir}
}

// Dir returns the scanned directory.
func (f *Folder) Dir() string {
	return f.dir
}

// List returns the regular file names in lexicographic order.
func (f *Folder) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFolderNotFound, f.dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", f.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// DirEntry.Type comes from lstat, so symlinks report ModeSymlink here.
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Read loads a file's bytes and identity key.
func (f *Folder) Read(name string) (domain.LocalFile, error) {
	path := filepath.Join(f.dir, name)

	info, err := os.Lstat(path)
	if err != nil {
		return domain.LocalFile{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return domain.LocalFile{}, fmt.Errorf("stat %s: not a regular file", name)
	}

	ident, err := IdentityOf(path)
	if err != nil {
		return domain.LocalFile{}, fmt.Errorf("identity %s: %w", name, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.LocalFile{}, fmt.Errorf("read %s: %w", name, err)
	}

	return domain.LocalFile{
		Name:        name,
		Path:        path,
		Content:     content,
		IdentityKey: ident,
	}, nil
}
