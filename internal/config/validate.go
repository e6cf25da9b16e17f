// Package config provides configuration models and helpers for lake pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "input.song_glob"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownStorageKinds lists the storage backends shipped with the etl binary.
var knownStorageKinds = []string{"parquet", "postgres", "sqlite"}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	var p config.Pipeline
//	if err := json.NewDecoder(r).Decode(&p); err != nil { ... }
//	p.ApplyDefaults()
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	// Top-level pipeline checks.
	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateInput(p.Input)...)
	issues = append(issues, validateStorage(p.Storage, p.Output)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	if p.PreviewRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "preview_rows",
			Message:  "preview_rows must not be negative",
		})
	}

	return issues
}

// validateInput validates the input root and both glob patterns.
func validateInput(in Input) []Issue {
	var issues []Issue

	if strings.TrimSpace(in.Root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.root",
			Message:  "input.root must not be empty",
		})
	}
	issues = append(issues, validateGlob("input.song_glob", in.SongGlob)...)
	issues = append(issues, validateGlob("input.log_glob", in.LogGlob)...)

	return issues
}

// validateGlob rejects patterns that are empty or escape the input root.
// Patterns are always joined onto input.root, so absolute paths and ".."
// segments would silently read outside the dataset.
func validateGlob(path, pattern string) []Issue {
	var issues []Issue

	if strings.TrimSpace(pattern) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path,
			Message:  "glob must not be empty (ApplyDefaults fills the standard layout)",
		})
		return issues
	}
	if filepath.IsAbs(pattern) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path,
			Message:  fmt.Sprintf("glob %q must be relative to input.root, not absolute", pattern),
		})
	}
	for _, seg := range strings.Split(filepath.ToSlash(pattern), "/") {
		if seg == ".." {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("glob %q must not escape input.root via \"..\"", pattern),
			})
			break
		}
	}

	return issues
}

// validateStorage validates storage configuration together with the output
// section, since which fields are required depends on the selected kind.
func validateStorage(s Storage, out Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	known := false
	for _, k := range knownStorageKinds {
		if s.Kind == k {
			known = true
			break
		}
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message: fmt.Sprintf("unknown storage kind %q; known kinds: %s",
				s.Kind, strings.Join(knownStorageKinds, ", ")),
		})
		return issues
	}

	// Kind-specific checks.
	switch s.Kind {
	case "parquet":
		if strings.TrimSpace(out.Root) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.root",
				Message:  "parquet storage requires a non-empty output.root",
			})
		}
		if strings.TrimSpace(s.DB.DSN) != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.db.dsn",
				Message:  "dsn is ignored by the parquet backend",
			})
		}
	case "postgres", "sqlite":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  fmt.Sprintf("%s storage requires a non-empty storage.db.dsn", s.Kind),
			})
		}
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
// Zero values are fine (the runner substitutes defaults); negatives are not.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ReaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.reader_workers",
			Message:  "reader_workers must not be negative",
		})
	}
	if r.JoinPartitions < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.join_partitions",
			Message:  "join_partitions must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}
