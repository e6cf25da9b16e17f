package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pamo12/data-lake/internal/inspect"
)

// main is the entrypoint for the lake inspection CLI. It reads the
// published parquet tables under -root back through DuckDB and prints
// per-table row and partition counts, optionally with sample rows.
//
// Typical use is a quick verification after a pipeline run:
//
//	lakeprobe -root data/output -sample 3
func main() {
	var (
		flagRoot = flag.String(
			"root",
			"data/output",
			"Lake root directory, the output.root of the pipeline that published it",
		)
		flagSample = flag.Int(
			"sample",
			0,
			"Render the first N rows of every table (0 disables)",
		)
		flagJSON = flag.Bool(
			"json",
			false,
			"Output the report as JSON instead of text lines",
		)
		flagPretty = flag.Bool(
			"pretty",
			true,
			"Pretty-print JSON output",
		)
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rep, err := inspect.Inspect(ctx, inspect.Options{
		Root:       *flagRoot,
		SampleRows: *flagSample,
	})
	if err != nil {
		log.Fatalf("inspect: %v", err)
	}

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		if *flagPretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}

	fmt.Printf("lake %s\n", rep.Root)
	for _, tr := range rep.Tables {
		if tr.Missing {
			fmt.Printf("  %-10s missing\n", tr.Table)
			continue
		}
		fmt.Printf("  %-10s rows=%d partitions=%d\n", tr.Table, tr.Rows, tr.Partitions)
		for _, s := range tr.Sample {
			fmt.Printf("    %s\n", s)
		}
	}
}
