// Package datasource abstracts where raw input files come from.
package datasource

import (
	"context"
	"io"
)

// Source enumerates and opens the files of one raw dataset.
type Source interface {
	// List returns the matching file names in lexical order. A source whose
	// root does not exist is an error; a root with zero matches is not.
	List(ctx context.Context) ([]string, error)
	// Open opens one listed file for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
