// Package inspect reads a published lake back through DuckDB and reports,
// per table, whether it exists, how many rows it holds, and how many
// partition directories it spans. It is the verification side of the
// pipeline: cmd/etl writes the tables, cmd/lakeprobe uses this package to
// look at what actually landed on disk.
//
// Reading goes through DuckDB's read_parquet table function rather than
// the writer's own parquet library, so it also catches part files a
// different reader cannot open.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/storage/parquetfs"
)

// Tables lists the inspected tables in report order.
var Tables = []string{
	schema.TableSongs,
	schema.TableArtists,
	schema.TableUsers,
	schema.TableTime,
	schema.TableSongplays,
}

// Options configures one inspection pass.
type Options struct {
	// Root is the lake root, the directory the pipeline published into.
	Root string

	// SampleRows, when positive, renders the first N rows of every table.
	SampleRows int
}

// TableReport describes one published table.
type TableReport struct {
	Table      string   `json:"table"`
	Missing    bool     `json:"missing,omitempty"`
	Rows       int64    `json:"rows"`
	Partitions int      `json:"partitions"`
	Sample     []string `json:"sample,omitempty"`
}

// Report is the result of one inspection pass.
type Report struct {
	Root   string        `json:"root"`
	Tables []TableReport `json:"tables"`
}

// Inspect opens an in-memory DuckDB instance and reads every table under
// opts.Root. A table directory that does not exist is reported as missing,
// not as an error; a table that exists but cannot be read is an error.
func Inspect(ctx context.Context, opts Options) (Report, error) {
	if opts.Root == "" {
		return Report{}, fmt.Errorf("inspect: root is required")
	}

	// An empty DSN opens an in-memory database.
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return Report{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return Report{}, fmt.Errorf("ping duckdb: %w", err)
	}

	rep := Report{Root: opts.Root}
	for _, table := range Tables {
		tr, err := inspectTable(ctx, db, opts, table)
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", table, err)
		}
		rep.Tables = append(rep.Tables, tr)
	}
	return rep, nil
}

func inspectTable(ctx context.Context, db *sql.DB, opts Options, table string) (TableReport, error) {
	tr := TableReport{Table: table}
	dir := parquetfs.Dir(opts.Root, table)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			tr.Missing = true
			return tr, nil
		}
		return tr, err
	}

	rel := readParquet(dir)
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+rel).Scan(&tr.Rows); err != nil {
		return tr, fmt.Errorf("count rows: %w", err)
	}

	parts, err := countPartitions(dir)
	if err != nil {
		return tr, err
	}
	tr.Partitions = parts

	if opts.SampleRows > 0 && tr.Rows > 0 {
		sample, err := sampleRows(ctx, db, rel, opts.SampleRows)
		if err != nil {
			return tr, err
		}
		tr.Sample = sample
	}
	return tr, nil
}

// readParquet renders the table function reading every part file under
// dir. hive_partitioning folds the key=value directory names back into
// columns, undoing the split the writer performed. DuckDB's ** matches
// zero or more directory levels, so the same glob covers partitioned and
// unpartitioned tables.
func readParquet(dir string) string {
	glob := filepath.ToSlash(filepath.Join(dir, "**", "*.parquet"))
	return "read_parquet('" + strings.ReplaceAll(glob, "'", "''") + "', hive_partitioning=true)"
}

// countPartitions counts the distinct directories below dir holding part
// files. The table root itself does not count: an unpartitioned table has
// zero partitions, not one.
func countPartitions(dir string) (int, error) {
	seen := map[string]struct{}{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".parquet" {
			return nil
		}
		if parent := filepath.Dir(path); parent != dir {
			seen[parent] = struct{}{}
		}
		return nil
	})
	return len(seen), err
}

// sampleRows renders the first n rows as "col=value" strings, hive
// partition columns included. Column sets differ per table, so rows are
// scanned generically.
func sampleRows(ctx context.Context, db *sql.DB, rel string, n int) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", rel, n))
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = c + "=" + renderValue(vals[i])
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out, rows.Err()
}

// renderValue formats one scanned value for the sample output.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
