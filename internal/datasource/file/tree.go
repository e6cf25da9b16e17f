// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Tree is a filesystem source selecting every file under Root that matches
// Pattern, a slash-separated glob relative to Root. The raw datasets nest
// files by identifier prefix or date, so patterns span several directory
// levels, e.g. "song-data/*/*/*/*.json".
type Tree struct {
	Root    string
	Pattern string
}

// List returns the matching file paths in lexical order. A Root that does
// not exist is an error; an existing Root with zero matches returns an
// empty list.
func (t *Tree) List(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if _, err := os.Stat(t.Root); err != nil {
		return nil, fmt.Errorf("input root %s: %w", t.Root, err)
	}
	names, err := filepath.Glob(filepath.Join(t.Root, filepath.FromSlash(t.Pattern)))
	if err != nil {
		return nil, fmt.Errorf("glob %q under %s: %w", t.Pattern, t.Root, err)
	}
	sort.Strings(names)
	return names, nil
}

// Open opens one listed file for reading.
//
// If the context is already done, Open returns its error without touching
// the filesystem. Filesystem errors are wrapped with the path and keep
// errors.Is/As working, e.g. errors.Is(err, os.ErrNotExist).
func (t *Tree) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}
