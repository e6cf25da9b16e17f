package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// validPipeline returns a pipeline that passes all lint checks; tests mutate
// single fields to provoke specific issues.
func validPipeline() Pipeline {
	p := Pipeline{
		Job: "test-job",
		Input: Input{
			Root: "data",
		},
		Output: Output{Root: "data/output"},
		Storage: Storage{
			Kind: "parquet",
		},
		Runtime: RuntimeConfig{
			ReaderWorkers:  2,
			JoinPartitions: 2,
			ChannelBuffer:  64,
			BatchSize:      500,
		},
	}
	p.ApplyDefaults()
	return p
}

/*
TestValidatePipeline_ValidMinimal verifies that a well-formed pipeline produces
no issues (errors or warnings).
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	p := validPipeline()

	issues := ValidatePipeline(p)
	if len(issues) != 0 {
		t.Fatalf("expected no issues for valid pipeline; got: %+v", issues)
	}
}

/*
TestValidatePipeline_MissingJob verifies that a missing or empty Job field
produces a SeverityError with path "job".
*/
func TestValidatePipeline_MissingJob(t *testing.T) {
	p := validPipeline()
	p.Job = "  "

	issues := ValidatePipeline(p)

	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

/*
TestValidateInput_Cases exercises validateInput with a missing root and glob
patterns that would escape it.
*/
func TestValidateInput_Cases(t *testing.T) {
	t.Run("missing_root", func(t *testing.T) {
		in := Input{Root: "", SongGlob: DefaultSongGlob, LogGlob: DefaultLogGlob}
		issues := validateInput(in)
		if !hasIssue(t, issues, SeverityError, "input.root", "must not be empty") {
			t.Fatalf("expected error for empty input.root; got %+v", issues)
		}
	})

	t.Run("empty_glob", func(t *testing.T) {
		in := Input{Root: "data", SongGlob: "", LogGlob: DefaultLogGlob}
		issues := validateInput(in)
		if !hasIssue(t, issues, SeverityError, "input.song_glob", "must not be empty") {
			t.Fatalf("expected error for empty song_glob; got %+v", issues)
		}
	})

	t.Run("absolute_glob", func(t *testing.T) {
		in := Input{Root: "data", SongGlob: "/etc/*.json", LogGlob: DefaultLogGlob}
		issues := validateInput(in)
		if !hasIssue(t, issues, SeverityError, "input.song_glob", "not absolute") {
			t.Fatalf("expected error for absolute song_glob; got %+v", issues)
		}
	})

	t.Run("dotdot_glob", func(t *testing.T) {
		in := Input{Root: "data", SongGlob: DefaultSongGlob, LogGlob: "../secrets/*.json"}
		issues := validateInput(in)
		if !hasIssue(t, issues, SeverityError, "input.log_glob", "must not escape") {
			t.Fatalf("expected error for ..-escaping log_glob; got %+v", issues)
		}
	})

	t.Run("dotdot_inside_filename_ok", func(t *testing.T) {
		// ".." as part of a name is fine; only a full path segment escapes.
		in := Input{Root: "data", SongGlob: "song..data/*.json", LogGlob: DefaultLogGlob}
		issues := validateInput(in)
		if hasIssue(t, issues, SeverityError, "input.song_glob", "escape") {
			t.Fatalf("did not expect escape error for %q; got %+v", in.SongGlob, issues)
		}
	})
}

/*
TestValidateStorage_Cases exercises validateStorage across the three known
kinds plus missing/unknown values.
*/
func TestValidateStorage_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		issues := validateStorage(Storage{}, Output{Root: "out"})
		if !hasIssue(t, issues, SeverityError, "storage.kind", "must not be empty") {
			t.Fatalf("expected error for empty storage.kind; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateStorage(Storage{Kind: "weird"}, Output{Root: "out"})
		if !hasIssue(t, issues, SeverityError, "storage.kind", "known kinds: parquet, postgres, sqlite") {
			t.Fatalf("expected error listing known kinds; got %+v", issues)
		}
	})

	t.Run("parquet_requires_output_root", func(t *testing.T) {
		issues := validateStorage(Storage{Kind: "parquet"}, Output{})
		if !hasIssue(t, issues, SeverityError, "output.root", "non-empty output.root") {
			t.Fatalf("expected error for missing output.root; got %+v", issues)
		}
	})

	t.Run("parquet_warns_on_dsn", func(t *testing.T) {
		s := Storage{Kind: "parquet", DB: DBConfig{DSN: "postgres://x"}}
		issues := validateStorage(s, Output{Root: "out"})
		if !hasIssue(t, issues, SeverityWarning, "storage.db.dsn", "ignored by the parquet backend") {
			t.Fatalf("expected warning for dsn under parquet; got %+v", issues)
		}
	})

	t.Run("postgres_requires_dsn", func(t *testing.T) {
		issues := validateStorage(Storage{Kind: "postgres"}, Output{})
		if !hasIssue(t, issues, SeverityError, "storage.db.dsn", "non-empty storage.db.dsn") {
			t.Fatalf("expected error for missing dsn; got %+v", issues)
		}
	})

	t.Run("sqlite_requires_dsn", func(t *testing.T) {
		issues := validateStorage(Storage{Kind: "sqlite"}, Output{})
		if !hasIssue(t, issues, SeverityError, "storage.db.dsn", "non-empty storage.db.dsn") {
			t.Fatalf("expected error for missing dsn; got %+v", issues)
		}
	})

	t.Run("postgres_ignores_output_root", func(t *testing.T) {
		s := Storage{Kind: "postgres", DB: DBConfig{DSN: "postgres://x"}}
		issues := validateStorage(s, Output{})
		if len(issues) != 0 {
			t.Fatalf("expected no issues for postgres without output.root; got %+v", issues)
		}
	})
}

/*
TestValidateRuntime_Negatives verifies that each negative runtime knob yields
its own SeverityError while zero values pass.
*/
func TestValidateRuntime_Negatives(t *testing.T) {
	if issues := validateRuntime(RuntimeConfig{}); len(issues) != 0 {
		t.Fatalf("zero runtime should lint clean; got %+v", issues)
	}

	r := RuntimeConfig{
		ReaderWorkers:  -1,
		JoinPartitions: -2,
		ChannelBuffer:  -3,
		BatchSize:      -4,
	}
	issues := validateRuntime(r)

	for _, path := range []string{
		"runtime.reader_workers",
		"runtime.join_partitions",
		"runtime.channel_buffer",
		"runtime.batch_size",
	} {
		if !hasIssue(t, issues, SeverityError, path, "must not be negative") {
			t.Fatalf("expected error at %s; got %+v", path, issues)
		}
	}
}

func TestValidatePipeline_NegativePreviewRows(t *testing.T) {
	p := validPipeline()
	p.PreviewRows = -1

	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "preview_rows", "must not be negative") {
		t.Fatalf("expected error for negative preview_rows; got %+v", issues)
	}
}
