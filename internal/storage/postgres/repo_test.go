package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/storage"
)

func TestPgIdent(t *testing.T) {
	cases := map[string]string{
		"songs":     `"songs"`,
		"time":      `"time"`,
		`weird"one`: `"weird""one"`,
	}
	for in, want := range cases {
		if got := pgIdent(in); got != want {
			t.Fatalf("pgIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

// Each table's DDL must exist, format cleanly, and mention every column the
// COPY path sends, in order.
func TestDDLMatchesColumns(t *testing.T) {
	columns := map[string][]string{
		schema.TableSongs:     songColumns,
		schema.TableArtists:   artistColumns,
		schema.TableUsers:     userColumns,
		schema.TableTime:      timeColumns,
		schema.TableSongplays: songplayColumns,
	}
	for table, cols := range columns {
		ddl, ok := tableDDL[table]
		if !ok {
			t.Fatalf("no DDL for %s", table)
		}
		stmt := fmt.Sprintf(ddl, pgIdent("stage_"+table))
		if !strings.Contains(stmt, `"stage_`+table+`"`) {
			t.Fatalf("%s: prefix not applied: %s", table, stmt)
		}
		last := -1
		for _, c := range cols {
			i := strings.Index(stmt, c)
			if i < 0 {
				t.Fatalf("%s: column %q missing from DDL", table, c)
			}
			if i < last {
				t.Fatalf("%s: column %q out of order", table, c)
			}
			last = i
		}
	}
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	if _, err := New(context.Background(), storage.Config{DSN: "  "}); err == nil {
		t.Fatal("want error for empty DSN")
	}
}
