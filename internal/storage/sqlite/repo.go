// Package sqlite implements a local storage.Writer on database/sql with
// the modernc driver. SQLite has no bulk-load API like Postgres COPY;
// batched multi-row INSERTs inside one transaction fill the same role, and
// the transaction doubles as the atomic overwrite boundary.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return New(ctx, cfg)
	})
}

const defaultBatchSize = 500

var tableDDL = map[string]string{
	schema.TableSongs: `CREATE TABLE IF NOT EXISTS %s (
		song_id   TEXT NOT NULL,
		title     TEXT NOT NULL,
		artist_id TEXT NOT NULL,
		year      INTEGER NOT NULL,
		duration  REAL NOT NULL
	)`,
	schema.TableArtists: `CREATE TABLE IF NOT EXISTS %s (
		artist_id TEXT NOT NULL,
		name      TEXT NOT NULL,
		location  TEXT,
		latitude  REAL,
		longitude REAL
	)`,
	schema.TableUsers: `CREATE TABLE IF NOT EXISTS %s (
		user_id    TEXT NOT NULL,
		first_name TEXT,
		last_name  TEXT,
		gender     TEXT,
		level      TEXT NOT NULL
	)`,
	schema.TableTime: `CREATE TABLE IF NOT EXISTS %s (
		timestamp INTEGER NOT NULL,
		datetime  TEXT NOT NULL,
		hour      INTEGER NOT NULL,
		day       INTEGER NOT NULL,
		week      INTEGER NOT NULL,
		month     INTEGER NOT NULL,
		year      INTEGER NOT NULL,
		weekday   INTEGER NOT NULL
	)`,
	schema.TableSongplays: `CREATE TABLE IF NOT EXISTS %s (
		songplay_id INTEGER NOT NULL,
		start_time  INTEGER NOT NULL,
		year        INTEGER NOT NULL,
		month       INTEGER NOT NULL,
		user_id     TEXT NOT NULL,
		level       TEXT NOT NULL,
		song_id     TEXT,
		artist_id   TEXT,
		session_id  INTEGER NOT NULL,
		location    TEXT,
		user_agent  TEXT
	)`,
}

var (
	songColumns     = []string{"song_id", "title", "artist_id", "year", "duration"}
	artistColumns   = []string{"artist_id", "name", "location", "latitude", "longitude"}
	userColumns     = []string{"user_id", "first_name", "last_name", "gender", "level"}
	timeColumns     = []string{"timestamp", "datetime", "hour", "day", "week", "month", "year", "weekday"}
	songplayColumns = []string{"songplay_id", "start_time", "year", "month", "user_id", "level",
		"song_id", "artist_id", "session_id", "location", "user_agent"}
)

// Writer is a SQLite-backed storage.Writer.
type Writer struct {
	db     *sql.DB
	prefix string
	batch  int
}

// New opens the database file named by the DSN and ensures all five
// destination tables exist.
//
// The DSN is passed straight to database/sql, e.g. "lake.db" or
// "file:lake.db?cache=shared".
func New(ctx context.Context, cfg storage.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite serializes writers anyway; a single connection also keeps an
	// in-memory DSN pointing at one database instead of one per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	w := &Writer{db: db, prefix: cfg.TablePrefix, batch: cfg.BatchSize}
	if w.batch <= 0 {
		w.batch = defaultBatchSize
	}
	for _, table := range []string{
		schema.TableSongs, schema.TableArtists, schema.TableUsers,
		schema.TableTime, schema.TableSongplays,
	} {
		ddl := fmt.Sprintf(tableDDL[table], quoteIdent(w.prefix+table))
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: create %s: %w", w.prefix+table, err)
		}
	}
	return w, nil
}

func (w *Writer) WriteSongs(ctx context.Context, rows []schema.SongRow) (storage.Stats, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.SongID, r.Title, r.ArtistID, r.Year, r.Duration}
	}
	return w.overwrite(ctx, schema.TableSongs, songColumns, vals)
}

func (w *Writer) WriteArtists(ctx context.Context, rows []schema.ArtistRow) (storage.Stats, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ArtistID, r.Name, r.Location, r.Latitude, r.Longitude}
	}
	return w.overwrite(ctx, schema.TableArtists, artistColumns, vals)
}

func (w *Writer) WriteUsers(ctx context.Context, rows []schema.UserRow) (storage.Stats, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.UserID, r.FirstName, r.LastName, r.Gender, r.Level}
	}
	return w.overwrite(ctx, schema.TableUsers, userColumns, vals)
}

func (w *Writer) WriteTimes(ctx context.Context, rows []schema.TimeRow) (storage.Stats, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.Timestamp, r.Datetime.UTC().Format(time.RFC3339Nano),
			r.Hour, r.Day, r.Week, r.Month, r.Year, r.Weekday}
	}
	return w.overwrite(ctx, schema.TableTime, timeColumns, vals)
}

func (w *Writer) WriteSongplays(ctx context.Context, rows []schema.SongplayRow) (storage.Stats, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.SongplayID, r.StartTime, r.Year, r.Month, r.UserID, r.Level,
			r.SongID, r.ArtistID, r.SessionID, r.Location, r.UserAgent}
	}
	return w.overwrite(ctx, schema.TableSongplays, songplayColumns, vals)
}

func (w *Writer) Close(ctx context.Context) error { return w.db.Close() }

// overwrite replaces the table content in one transaction.
func (w *Writer) overwrite(ctx context.Context, table string, columns []string, rows [][]any) (storage.Stats, error) {
	name := w.prefix + table
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Stats{}, fmt.Errorf("%s: begin: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(name)); err != nil {
		return storage.Stats{}, fmt.Errorf("%s: clear: %w", name, err)
	}
	for start := 0; start < len(rows); start += w.batch {
		end := min(start+w.batch, len(rows))
		if err := insertChunk(ctx, tx, name, columns, rows[start:end]); err != nil {
			return storage.Stats{}, fmt.Errorf("%s: insert rows %d..%d: %w", name, start, end, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storage.Stats{}, fmt.Errorf("%s: commit: %w", name, err)
	}
	return storage.Stats{Rows: int64(len(rows))}, nil
}

func insertChunk(ctx context.Context, tx *sql.Tx, name string, columns []string, chunk [][]any) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteIdent(name))
	sb.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(c))
	}
	sb.WriteString(") VALUES ")

	tuple := "(" + strings.Repeat("?, ", len(columns)-1) + "?)"
	args := make([]any, 0, len(chunk)*len(columns))
	for i, row := range chunk {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
