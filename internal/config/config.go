// Package config defines the canonical, JSON-serializable configuration model
// for the lake pipeline. It is intentionally small, explicit, and dependency-
// free so that pipeline files can be loaded from disk (or other sources) and
// passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by
//     the standard library.
//
// Example (trimmed):
//
//	{
//	  "job":     "sparkify_lake",
//	  "input":   { "root": "data", "song_glob": "song-data/*/*/*/*.json" },
//	  "output":  { "root": "data/output" },
//	  "storage": { "kind": "parquet" },
//	  "runtime": { "reader_workers": 4, "join_partitions": 4 }
//	}
package config

// Default glob patterns, relative to input.root. They mirror the directory
// layout the song catalog and activity log dumps ship in.
const (
	DefaultSongGlob = "song-data/*/*/*/*.json"
	DefaultLogGlob  = "log-data/*/*/*.json"
)

// Pipeline describes one full lake run in JSON. It is the top-level object
// decoded from a pipeline file (e.g., configs/local.json).
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log prefixes.
	Job string `json:"job"`

	// Input describes where the song catalog and activity logs are read from.
	Input Input `json:"input"`

	// Output describes where the partitioned parquet layout is published.
	// Relational storage kinds ignore it.
	Output Output `json:"output"`

	// Storage selects the sink the five tables are written to.
	Storage Storage `json:"storage"`

	// Runtime controls concurrency and batching.
	Runtime RuntimeConfig `json:"runtime"`

	// PreviewRows, when positive, logs the first N rows of every table after
	// the build stage. Purely diagnostic; zero disables the preview.
	PreviewRows int `json:"preview_rows"`
}

// Input identifies the two input datasets. Both globs are evaluated relative
// to Root.
type Input struct {
	// Root is the local filesystem directory holding both datasets.
	Root string `json:"root"`

	// SongGlob matches the song catalog files. Empty means DefaultSongGlob.
	SongGlob string `json:"song_glob"`

	// LogGlob matches the activity log files. Empty means DefaultLogGlob.
	LogGlob string `json:"log_glob"`
}

// Output holds configuration for filesystem-backed storage kinds.
type Output struct {
	// Root is the directory the per-table layouts are published under.
	Root string `json:"root"`
}

// Storage selects the sink used to persist the built tables.
type Storage struct {
	// Kind selects the storage implementation. Known values: "parquet",
	// "postgres", "sqlite".
	Kind string `json:"kind"`

	// DB carries options for the relational storage kinds.
	DB DBConfig `json:"db"`
}

// DBConfig configures a relational sink.
type DBConfig struct {
	// DSN is the connection string, e.g. "postgresql://..." for pgx or a
	// file path for sqlite.
	DSN string `json:"dsn"`

	// TablePrefix is prepended to every destination table name. Leave empty
	// to write to the bare table names (songs, artists, ...).
	TablePrefix string `json:"table_prefix"`
}

// RuntimeConfig controls concurrency, batching, and channel buffer sizes.
// Zero values mean "use the built-in default"; the resolved values can also
// be overridden per-run through environment variables.
type RuntimeConfig struct {
	ReaderWorkers  int `json:"reader_workers"`
	JoinPartitions int `json:"join_partitions"`
	ChannelBuffer  int `json:"channel_buffer"`
	BatchSize      int `json:"batch_size"`
}

// ApplyDefaults fills empty glob patterns with the standard dataset layout.
// It does not touch runtime values; those are resolved at run time so that
// environment overrides keep working.
func (p *Pipeline) ApplyDefaults() {
	if p.Input.SongGlob == "" {
		p.Input.SongGlob = DefaultSongGlob
	}
	if p.Input.LogGlob == "" {
		p.Input.LogGlob = DefaultLogGlob
	}
}
