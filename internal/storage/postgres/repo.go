// Package postgres implements a warehouse sink for the five tables using
// pgx v5. Each write truncates the destination table and bulk-loads the
// fresh rows with COPY inside one transaction, the relational counterpart
// of the full-overwrite publish on the columnar side.
//
// Partition keys do not apply here; partitioning is a property of the
// columnar layout only.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return New(ctx, cfg)
	})
}

// No key constraints on any table: dimension rows are unique by full row,
// and the users table deliberately keeps one row per (user, level).
var tableDDL = map[string]string{
	schema.TableSongs: `CREATE TABLE IF NOT EXISTS %s (
		song_id   text NOT NULL,
		title     text NOT NULL,
		artist_id text NOT NULL,
		year      integer NOT NULL,
		duration  double precision NOT NULL
	)`,
	schema.TableArtists: `CREATE TABLE IF NOT EXISTS %s (
		artist_id text NOT NULL,
		name      text NOT NULL,
		location  text,
		latitude  double precision,
		longitude double precision
	)`,
	schema.TableUsers: `CREATE TABLE IF NOT EXISTS %s (
		user_id    text NOT NULL,
		first_name text,
		last_name  text,
		gender     text,
		level      text NOT NULL
	)`,
	schema.TableTime: `CREATE TABLE IF NOT EXISTS %s (
		timestamp bigint NOT NULL,
		datetime  timestamptz NOT NULL,
		hour      integer NOT NULL,
		day       integer NOT NULL,
		week      integer NOT NULL,
		month     integer NOT NULL,
		year      integer NOT NULL,
		weekday   integer NOT NULL
	)`,
	schema.TableSongplays: `CREATE TABLE IF NOT EXISTS %s (
		songplay_id bigint NOT NULL,
		start_time  bigint NOT NULL,
		year        integer NOT NULL,
		month       integer NOT NULL,
		user_id     text NOT NULL,
		level       text NOT NULL,
		song_id     text,
		artist_id   text,
		session_id  bigint NOT NULL,
		location    text,
		user_agent  text
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

// Writer is a Postgres-backed storage.Writer.
type Writer struct {
	pool   *pgxpool.Pool
	prefix string
}

// New connects to the DSN and ensures all five destination tables exist.
func New(ctx context.Context, cfg storage.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	w := &Writer{pool: pool, prefix: cfg.TablePrefix}
	for _, table := range []string{
		schema.TableSongs, schema.TableArtists, schema.TableUsers,
		schema.TableTime, schema.TableSongplays,
	} {
		ddl := fmt.Sprintf(tableDDL[table], pgIdent(w.prefix+table))
		if _, err := pool.Exec(ctx, ddl); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create %s: %w", w.prefix+table, err)
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
		vals[i] = []any{r.Timestamp, r.Datetime, r.Hour, r.Day, r.Week, r.Month, r.Year, r.Weekday}
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

func (w *Writer) Close(ctx context.Context) error {
	w.pool.Close()
	return nil
}

// overwrite replaces the table content in one transaction: readers see the
// old rows or the new ones, never a half-loaded table.
func (w *Writer) overwrite(ctx context.Context, table string, columns []string, rows [][]any) (storage.Stats, error) {
	name := w.prefix + table
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return storage.Stats{}, fmt.Errorf("%s: begin: %w", name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+pgIdent(name)); err != nil {
		return storage.Stats{}, fmt.Errorf("%s: truncate: %w", name, err)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{name}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return storage.Stats{}, fmt.Errorf("%s: copy: %s (%s)", name, pgErr.Detail, pgErr.SQLState())
		}
		return storage.Stats{}, fmt.Errorf("%s: copy: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storage.Stats{}, fmt.Errorf("%s: commit: %w", name, err)
	}
	return storage.Stats{Rows: n}, nil
}

// pgIdent safely quotes a single identifier segment for Postgres. The time
// table needs it; quoting everything keeps one rule.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
