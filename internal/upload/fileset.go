package upload

import (
	"context"
	"fmt"
	"slices"

	"lpupload/internal/launchpad"
)

// FileSet holds the names of files already attached to a release.
type FileSet map[string]struct{}

// NewFileSet builds a set from names.
func NewFileSet(names ...string) FileSet {
	set := make(FileSet, len(names))
	for _, name := range names {
		set.Add(name)
	}
	return set
}

// Add marks name as present.
func (s FileSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is present.
func (s FileSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s FileSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FileLister lists the files attached to a release.
type FileLister interface {
	ReleaseFiles(ctx context.Context, release *launchpad.Release) ([]launchpad.ReleaseFile, error)
}

// ExistingFiles collects the names of the files already on release.
func ExistingFiles(ctx context.Context, lister FileLister, release *launchpad.Release) (FileSet, error) {
	files, err := lister.ReleaseFiles(ctx, release)
	if err != nil {
		return nil, fmt.Errorf("existing files: %w", err)
	}
	set := make(FileSet, len(files))
	for _, f := range files {
		if name := f.Filename(); name != "" && name != "." && name != "/" {
			set.Add(name)
		}
	}
	return set, nil
}
