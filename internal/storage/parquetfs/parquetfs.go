// Package parquetfs writes the five tables as partitioned parquet trees on
// a local filesystem, one directory per table, hive-style key=value
// subdirectories per partition.
//
// Writes are atomic per table: each table is staged into a hidden sibling
// directory and renamed over the destination only once every part file is
// complete, so readers never observe a half-written table and a failed run
// leaves the previous publication in place.
package parquetfs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/storage"
)

func init() {
	storage.Register("parquet", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return New(cfg)
	})
}

// PartFileName is the single part file written per partition directory.
const PartFileName = "part-00000.parquet"

// Dir returns the destination directory of a table under root.
func Dir(root, table string) string {
	return filepath.Join(root, table+".parquet")
}

// Writer writes tables under a fixed root directory.
type Writer struct {
	root string
}

// New creates the output root if needed and returns a Writer for it.
func New(cfg storage.Config) (*Writer, error) {
	if cfg.Root == "" {
		return nil, errors.New("parquet storage needs output.root")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	return &Writer{root: cfg.Root}, nil
}

func (w *Writer) WriteSongs(ctx context.Context, rows []schema.SongRow) (storage.Stats, error) {
	groups := groupBy(rows,
		func(r schema.SongRow) string {
			return partitionDir("year", strconv.Itoa(r.Year), "artist_id", r.ArtistID)
		},
		func(r schema.SongRow) SongFile {
			return SongFile{SongID: r.SongID, Title: r.Title, Duration: r.Duration}
		})
	return writeTable(ctx, w.root, schema.TableSongs, groups)
}

func (w *Writer) WriteArtists(ctx context.Context, rows []schema.ArtistRow) (storage.Stats, error) {
	files := make([]ArtistFile, len(rows))
	for i, r := range rows {
		files[i] = ArtistFile{
			ArtistID: r.ArtistID, Name: r.Name,
			Location: r.Location, Latitude: r.Latitude, Longitude: r.Longitude,
		}
	}
	return writeTable(ctx, w.root, schema.TableArtists, single(files))
}

func (w *Writer) WriteUsers(ctx context.Context, rows []schema.UserRow) (storage.Stats, error) {
	files := make([]UserFile, len(rows))
	for i, r := range rows {
		files[i] = UserFile{
			UserID: r.UserID, FirstName: r.FirstName, LastName: r.LastName,
			Gender: r.Gender, Level: r.Level,
		}
	}
	return writeTable(ctx, w.root, schema.TableUsers, single(files))
}

func (w *Writer) WriteTimes(ctx context.Context, rows []schema.TimeRow) (storage.Stats, error) {
	groups := groupBy(rows,
		func(r schema.TimeRow) string {
			return partitionDir("year", strconv.Itoa(r.Year), "month", strconv.Itoa(r.Month))
		},
		func(r schema.TimeRow) TimeFile {
			return TimeFile{
				Timestamp: r.Timestamp, Datetime: r.Datetime,
				Hour: r.Hour, Day: r.Day, Week: r.Week, Weekday: r.Weekday,
			}
		})
	return writeTable(ctx, w.root, schema.TableTime, groups)
}

func (w *Writer) WriteSongplays(ctx context.Context, rows []schema.SongplayRow) (storage.Stats, error) {
	groups := groupBy(rows,
		func(r schema.SongplayRow) string {
			return partitionDir("year", strconv.Itoa(r.Year), "month", strconv.Itoa(r.Month))
		},
		func(r schema.SongplayRow) SongplayFile {
			return SongplayFile{
				SongplayID: r.SongplayID, StartTime: r.StartTime,
				UserID: r.UserID, Level: r.Level,
				SongID: r.SongID, ArtistID: r.ArtistID, SessionID: r.SessionID,
				Location: r.Location, UserAgent: r.UserAgent,
			}
		})
	return writeTable(ctx, w.root, schema.TableSongplays, groups)
}

func (w *Writer) Close(ctx context.Context) error { return nil }

// group is one partition directory and its rows. An empty dir means the
// table root itself.
type group[T any] struct {
	dir  string
	rows []T
}

// groupBy splits rows into partition groups in first-seen order, converting
// each row to its part-file layout.
func groupBy[R, T any](rows []R, dirOf func(R) string, fileOf func(R) T) []group[T] {
	idx := make(map[string]int)
	var out []group[T]
	for _, r := range rows {
		d := dirOf(r)
		i, ok := idx[d]
		if !ok {
			i = len(out)
			idx[d] = i
			out = append(out, group[T]{dir: d})
		}
		out[i].rows = append(out[i].rows, fileOf(r))
	}
	return out
}

// single wraps an unpartitioned table into its one group. Empty tables
// still publish one part file so the table is readable as such.
func single[T any](rows []T) []group[T] {
	return []group[T]{{rows: rows}}
}

// partitionDir renders one or two hive-style key=value path elements.
// Values are path-escaped so a value containing a separator cannot change
// the directory layout.
func partitionDir(kv ...string) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, kv[i]+"="+url.PathEscape(kv[i+1]))
	}
	return filepath.Join(parts...)
}

// writeTable stages all groups of one table under a temp directory next to
// the destination, then swaps it in. On error nothing is published and any
// staging remains are removed.
func writeTable[T any](ctx context.Context, root, table string, groups []group[T]) (storage.Stats, error) {
	dest := Dir(root, table)
	tmp, err := os.MkdirTemp(root, "."+table+".parquet.tmp-*")
	if err != nil {
		return storage.Stats{}, fmt.Errorf("%s: create staging dir: %w", table, err)
	}
	defer os.RemoveAll(tmp)

	var stats storage.Stats
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return storage.Stats{}, err
		}
		dir := tmp
		if g.dir != "" {
			dir = filepath.Join(tmp, g.dir)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return storage.Stats{}, fmt.Errorf("%s: partition dir: %w", table, err)
			}
			stats.Partitions++
		}
		if err := writePart(filepath.Join(dir, PartFileName), g.rows); err != nil {
			return storage.Stats{}, fmt.Errorf("%s/%s: %w", table, g.dir, err)
		}
		stats.Rows += int64(len(g.rows))
	}

	if err := os.RemoveAll(dest); err != nil {
		return storage.Stats{}, fmt.Errorf("%s: clear previous publication: %w", table, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return storage.Stats{}, fmt.Errorf("%s: publish: %w", table, err)
	}
	return stats, nil
}

func writePart[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	pw := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write row group: %w", err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finish part file: %w", err)
	}
	return f.Close()
}
