// Package reference manages the control datasets used when a user does not
// upload their own control samples: listing the available options, loading
// a selected GCT file, and keeping the option list fresh.
package reference

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Source lists and opens reference files.
type Source interface {
	// List returns the file names available, sorted.
	List(ctx context.Context) ([]string, error)
	// Open opens one file by the name List returned.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource serves reference files from a local directory.
type DirSource struct {
	Dir string
}

// NewDirSource creates a DirSource.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// List returns the regular files in the directory.
func (s *DirSource) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference directory %s: %w", s.Dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open opens a file inside the directory. Names with path components are rejected.
func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	f, err := os.Open(filepath.Join(s.Dir, name)) //nolint:gosec // name is a base name inside Dir
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open reference %s: %w", name, err)
	}
	return f, nil
}
