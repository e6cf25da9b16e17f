// Package storage defines the table writer contract shared by all sinks
// and the registry the pipeline resolves its configured backend from.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pamo12/data-lake/internal/schema"
)

// Config selects and parameterizes a storage backend. It is a pass-through
// value built once from the pipeline config; credentials live in DSN and
// never touch the process environment.
type Config struct {
	Kind        string // registered backend name, e.g. "parquet"
	Root        string // parquet: destination directory for the table trees
	DSN         string // relational backends: connection string
	TablePrefix string // relational backends: prepended to table names
	BatchSize   int    // relational backends: rows per insert batch
}

// Stats reports what one table write published. Partitions counts key=value
// leaf directories; backends without a partitioned layout report zero.
type Stats struct {
	Rows       int64
	Partitions int
}

// Writer persists the five tables. Each call replaces the table's previous
// destination content as a whole; a failed call must leave the previously
// published content untouched.
type Writer interface {
	WriteSongs(ctx context.Context, rows []schema.SongRow) (Stats, error)
	WriteArtists(ctx context.Context, rows []schema.ArtistRow) (Stats, error)
	WriteUsers(ctx context.Context, rows []schema.UserRow) (Stats, error)
	WriteTimes(ctx context.Context, rows []schema.TimeRow) (Stats, error)
	WriteSongplays(ctx context.Context, rows []schema.SongplayRow) (Stats, error)
	Close(ctx context.Context) error
}

// Factory constructs a Writer for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Writer, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under the given kind. Registering the
// same kind again replaces the previous factory, which tests rely on.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New resolves cfg.Kind against the registry and constructs the writer.
func New(ctx context.Context, cfg Config) (Writer, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered backend kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
