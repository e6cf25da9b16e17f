// Package main wires the lake pipeline end-to-end: concurrent extraction of
// both raw datasets, in-memory table building, and a single load pass through
// the configured storage backend. This file keeps the CLI layer thin: it
// depends only on the storage factory and never imports backend-specific
// packages directly.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pamo12/data-lake/internal/catalog"
	"github.com/pamo12/data-lake/internal/config"
	"github.com/pamo12/data-lake/internal/datasource"
	"github.com/pamo12/data-lake/internal/datasource/file"
	"github.com/pamo12/data-lake/internal/events"
	"github.com/pamo12/data-lake/internal/metrics"
	"github.com/pamo12/data-lake/internal/parser/ndjson"
	"github.com/pamo12/data-lake/internal/probe"
	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/songplay"
	"github.com/pamo12/data-lake/internal/storage"
)

// runtimeConfig contains the resolved concurrency and batching configuration
// for a run. Values are derived from the pipeline spec with optional
// environment variable overrides (12-factor style).
type runtimeConfig struct {
	readerWorkers  int
	joinPartitions int
	bufferSize     int
	batchSize      int
}

// newRuntimeConfig resolves the runtime configuration using the pipeline spec
// and environment-variable fallbacks. Precedence per knob: spec value if
// positive, then environment, then built-in default.
func newRuntimeConfig(spec config.Pipeline) runtimeConfig {
	return runtimeConfig{
		readerWorkers:  pickInt(spec.Runtime.ReaderWorkers, getenvInt("ETL_READER_WORKERS", 4)),
		joinPartitions: pickInt(spec.Runtime.JoinPartitions, getenvInt("ETL_JOIN_PARTITIONS", 4)),
		bufferSize:     pickInt(spec.Runtime.ChannelBuffer, getenvInt("ETL_CH_BUFFER", 1024)),
		batchSize:      pickInt(spec.Runtime.BatchSize, getenvInt("ETL_BATCH_SIZE", 5000)),
	}
}

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newWriterFn = func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return storage.New(ctx, cfg)
	}
)

// summary holds the per-run row accounting reported at the end of a run.
type summary struct {
	songFiles   int // catalog files matched by the song glob
	songRecords int // catalog records decoded
	logFiles    int // activity log files matched by the log glob
	logEvents   int // log events decoded
	nextSong    int // events surviving the play filter
	songplays   int // fact rows produced by the join
	unmatched   int // filtered events with no catalog match
	ambiguous   int // catalog (title, artist) pairs with several entries
	nearMisses  int // unmatched events that fold-match the catalog
}

// run executes one full pipeline: extract both raw datasets, build the five
// tables, and publish them through the configured storage backend.
//
// Stages and their metrics labels:
//
//   - extract_songs:  read + decode the song catalog
//   - extract_events: read + decode the activity log
//   - transform:      dimension projection, play filter, catalog join
//   - load:           write all five tables through one storage writer
//
// Each stage is timed and counted whether it succeeds or fails; the first
// stage error aborts the run. Row-level decode errors are fatal too: a
// malformed input file means the dataset is broken, not the pipeline.
func run(ctx context.Context, spec config.Pipeline, verbose bool) error {
	rt := newRuntimeConfig(spec)
	if verbose {
		log.Printf(
			"runtime: readers=%d join_partitions=%d buffer=%d batch=%d",
			rt.readerWorkers, rt.joinPartitions, rt.bufferSize, rt.batchSize,
		)
	}

	var sum summary

	// 1) Extract the song catalog.
	start := time.Now()
	songSrc := &file.Tree{Root: spec.Input.Root, Pattern: spec.Input.SongGlob}
	songRecs, songFiles, err := readFiles(ctx, songSrc, rt, schema.DecodeSong)
	metrics.RecordStage(spec.Job, "extract_songs", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("extract songs: %w", err)
	}
	sum.songFiles, sum.songRecords = songFiles, len(songRecs)
	metrics.RecordRows(spec.Job, "song_records", int64(len(songRecs)))
	log.Printf("extract: %d song records from %d files", len(songRecs), songFiles)

	// 2) Extract the activity log.
	start = time.Now()
	logSrc := &file.Tree{Root: spec.Input.Root, Pattern: spec.Input.LogGlob}
	logEvts, logFiles, err := readFiles(ctx, logSrc, rt, schema.DecodeEvent)
	metrics.RecordStage(spec.Job, "extract_events", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("extract events: %w", err)
	}
	sum.logFiles, sum.logEvents = logFiles, len(logEvts)
	metrics.RecordRows(spec.Job, "log_events", int64(len(logEvts)))
	log.Printf("extract: %d log events from %d files", len(logEvts), logFiles)

	// 3) Transform: project the dimensions and join plays against the catalog.
	start = time.Now()
	songRows := catalog.Songs(songRecs)
	artistRows := catalog.Artists(songRecs)
	ix := catalog.BuildIndex(songRecs)

	plays := events.Filter(logEvts)
	userRows := events.Users(plays)
	timeRows := events.Times(plays)

	playRows, unmatched, err := songplay.Build(ctx, plays, ix, rt.joinPartitions)
	metrics.RecordStage(spec.Job, "transform", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	sum.nextSong = len(plays)
	sum.songplays = len(playRows)
	sum.unmatched = len(unmatched)
	sum.ambiguous = ix.AmbiguousPairs()
	sum.nearMisses = countNearMisses(songRecs, unmatched)
	metrics.RecordRows(spec.Job, "next_song_events", int64(len(plays)))
	metrics.RecordRows(spec.Job, "unmatched_events", int64(len(unmatched)))
	metrics.RecordRows(spec.Job, "ambiguous_pairs", int64(ix.AmbiguousPairs()))
	metrics.RecordRows(spec.Job, "near_miss_events", int64(sum.nearMisses))
	log.Printf(
		"transform: songs=%d artists=%d users=%d times=%d songplays=%d unmatched=%d",
		len(songRows), len(artistRows), len(userRows), len(timeRows), len(playRows), len(unmatched),
	)

	if n := spec.PreviewRows; n > 0 {
		logPreview("songs", n, songRows)
		logPreview("artists", n, artistRows)
		logPreview("users", n, userRows)
		logPreview("time", n, timeRows)
		logPreview("songplays", n, playRows)
	}

	// 4) Load all five tables through one writer.
	start = time.Now()
	err = load(ctx, spec, rt, tables{
		songs:     songRows,
		artists:   artistRows,
		users:     userRows,
		times:     timeRows,
		songplays: playRows,
	})
	metrics.RecordStage(spec.Job, "load", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	logSummary(&sum)
	return nil
}

// fileResult pairs one file's decoded records with the file's position in
// the source listing so the collector can reassemble results in listing
// order no matter which reader finished first.
type fileResult[T any] struct {
	idx  int
	recs []T
}

// readFiles lists src and decodes every matched file, running at most
// rt.readerWorkers files concurrently. The flattened result preserves
// listing order, which keeps row order, and with it generated identifiers,
// reproducible across runs.
//
// The first decode or IO error cancels the remaining readers and is
// returned. The int result is the number of files matched.
func readFiles[T any](ctx context.Context, src datasource.Source, rt runtimeConfig, decode func(map[string]json.RawMessage) (T, error)) ([]T, int, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(names) == 0 {
		return nil, 0, nil
	}

	results := make([][]T, len(names))
	ch := make(chan fileResult[T], rt.bufferSize)

	// Collector: the only writer into results, so readers never share slots.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range ch {
			results[r.idx] = r.recs
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.readerWorkers)
	for i, name := range names {
		g.Go(func() error {
			recs, err := decodeFile(gctx, src, name, decode)
			if err != nil {
				return err
			}
			select {
			case ch <- fileResult[T]{idx: i, recs: recs}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err = g.Wait()
	close(ch)
	<-done
	if err != nil {
		return nil, 0, err
	}

	var total int
	for _, recs := range results {
		total += len(recs)
	}
	out := make([]T, 0, total)
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, len(names), nil
}

// decodeFile opens one file and decodes every object in it. Errors carry the
// file name; the record position inside the file comes from the stream.
func decodeFile[T any](ctx context.Context, src datasource.Source, name string, decode func(map[string]json.RawMessage) (T, error)) ([]T, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var recs []T
	err = ndjson.StreamObjects(ctx, rc, func(obj map[string]json.RawMessage) error {
		rec, err := decode(obj)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return recs, nil
}

// tables carries the five built tables from the transform stage into load.
type tables struct {
	songs     []schema.SongRow
	artists   []schema.ArtistRow
	users     []schema.UserRow
	times     []schema.TimeRow
	songplays []schema.SongplayRow
}

// load publishes every table through the configured backend, one table at a
// time. The first failed write aborts the run; tables not yet written keep
// whatever the destination held before.
func load(ctx context.Context, spec config.Pipeline, rt runtimeConfig, t tables) error {
	w, err := newWriterFn(ctx, storage.Config{
		Kind:        spec.Storage.Kind,
		Root:        spec.Output.Root,
		DSN:         spec.Storage.DB.DSN,
		TablePrefix: spec.Storage.DB.TablePrefix,
		BatchSize:   rt.batchSize,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if cerr := w.Close(ctx); cerr != nil {
			log.Printf("close storage: %v", cerr)
		}
	}()

	writes := []struct {
		table string
		fn    func(context.Context) (storage.Stats, error)
	}{
		{"songs", func(ctx context.Context) (storage.Stats, error) { return w.WriteSongs(ctx, t.songs) }},
		{"artists", func(ctx context.Context) (storage.Stats, error) { return w.WriteArtists(ctx, t.artists) }},
		{"users", func(ctx context.Context) (storage.Stats, error) { return w.WriteUsers(ctx, t.users) }},
		{"time", func(ctx context.Context) (storage.Stats, error) { return w.WriteTimes(ctx, t.times) }},
		{"songplays", func(ctx context.Context) (storage.Stats, error) { return w.WriteSongplays(ctx, t.songplays) }},
	}
	for _, wr := range writes {
		st, err := wr.fn(ctx)
		if err != nil {
			return fmt.Errorf("write %s: %w", wr.table, err)
		}
		metrics.RecordTable(spec.Job, wr.table, st.Rows, st.Partitions)
		log.Printf("load: %s rows=%d partitions=%d", wr.table, st.Rows, st.Partitions)
	}
	return nil
}

// countNearMisses reports how many unmatched plays would have matched the
// catalog under case and accent folding. Purely diagnostic: the join itself
// stays exact, this only tells "spelled differently" apart from "not in the
// catalog at all".
func countNearMisses(recs []schema.SongMeta, unmatched []schema.LogEvent) int {
	if len(unmatched) == 0 {
		return 0
	}
	pairs := make([]probe.Pair, 0, len(recs))
	for _, r := range recs {
		pairs = append(pairs, probe.Pair{Title: r.Title, Artist: r.ArtistName})
	}
	ix := probe.NewFoldIndex(pairs)

	cands := make([]probe.Pair, 0, len(unmatched))
	for _, e := range unmatched {
		if e.Song == nil || e.Artist == nil {
			continue
		}
		cands = append(cands, probe.Pair{Title: *e.Song, Artist: *e.Artist})
	}
	return ix.CountNearMisses(cands)
}

// logPreview logs the first n rows of a built table for eyeball checks.
func logPreview[T any](table string, n int, rows []T) {
	if n <= 0 {
		return
	}
	for i := 0; i < min(n, len(rows)); i++ {
		log.Printf("preview %s[%d]: %+v", table, i, rows[i])
	}
}

// logSummary prints final aggregated statistics for the run.
//
// The invariant for filtered events is:
//
//	next_song == songplays + unmatched
//
// Every event surviving the play filter either joins the catalog or lands in
// the unmatched diagnostics. A mismatch means rows were silently lost on the
// way, which is worth shouting about even though the run itself succeeded.
func logSummary(s *summary) {
	log.Printf("summary: song_files=%d song_records=%d", s.songFiles, s.songRecords)
	log.Printf(
		"summary: log_files=%d log_events=%d next_song=%d",
		s.logFiles, s.logEvents, s.nextSong,
	)
	log.Printf(
		"summary: songplays=%d unmatched=%d ambiguous_pairs=%d near_misses=%d",
		s.songplays, s.unmatched, s.ambiguous, s.nearMisses,
	)

	if accounted := s.songplays + s.unmatched; accounted != s.nextSong {
		log.Printf(
			"WARNING: row accounting mismatch: next_song=%d accounted=%d (delta=%d)",
			s.nextSong, accounted, s.nextSong-accounted,
		)
	}
}

// ----------------------------------------------------------------------------
// Small helpers
// ----------------------------------------------------------------------------

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
