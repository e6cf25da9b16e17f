package bench

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/pamo12/data-lake/internal/catalog"
	"github.com/pamo12/data-lake/internal/events"
	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/songplay"
)

// BenchmarkEndToEnd exercises the hot path of the transform stage in a
// simplified, in-memory setup.
//
// It focuses on:
//   - events.Filter:  page selection over a realistic action mix
//   - events.Times:   epoch-ms calendar decomposition with dedup
//   - songplay.Build: the partitioned catalog join
//
// The goal is to approximate real-world throughput without involving I/O or
// actual storage drivers.
// Run with:
//
//	go test -run=^$ -bench ^BenchmarkEndToEnd$ -cpuprofile cpu.out -memprofile mem.out -count=1
func BenchmarkEndToEnd(b *testing.B) {
	ctx := context.Background()

	// Catalog: a fixed-size index. In production the catalog is small
	// relative to the event stream, so its size does not scale with b.N.
	const catalogSize = 1000
	recs := make([]schema.SongMeta, 0, catalogSize)
	titles := make([]string, catalogSize)
	artists := make([]string, catalogSize)
	for i := 0; i < catalogSize; i++ {
		titles[i] = fmt.Sprintf("Song %d", i)
		artists[i] = fmt.Sprintf("Artist %d", i%100)
		recs = append(recs, schema.SongMeta{
			SongID:     fmt.Sprintf("SO%06d", i),
			Title:      titles[i],
			ArtistID:   fmt.Sprintf("AR%06d", i%100),
			Year:       1990 + i%30,
			Duration:   180.5,
			ArtistName: artists[i],
		})
	}
	ix := catalog.BuildIndex(recs)

	// Event stream: b.N raw events with realistic values. Three in four are
	// plays, and one in ten of those misses the catalog.
	ghostTitle := "Ghost Song"
	ghostArtist := "Nobody"
	evts := make([]schema.LogEvent, 0, b.N)
	for i := 0; i < b.N; i++ {
		e := schema.LogEvent{
			UserID:    strconv.Itoa(1 + i%500),
			Level:     "free",
			Page:      "NextSong",
			TS:        1541640000000 + int64(i)*31000, // one play every ~31s
			SessionID: int64(100 + i%50),
		}
		if i%2 == 0 {
			e.Level = "paid"
		}
		switch {
		case i%4 == 3:
			e.Page = "Home"
		case i%10 == 9:
			e.Song = &ghostTitle
			e.Artist = &ghostArtist
		default:
			n := i % catalogSize
			e.Song = &titles[n]
			e.Artist = &artists[n]
		}
		evts = append(evts, e)
	}

	b.ResetTimer()
	plays := events.Filter(evts)
	times := events.Times(plays)
	rows, unmatched, err := songplay.Build(ctx, plays, ix, 4)
	b.StopTimer()

	if err != nil {
		b.Fatalf("Build: %v", err)
	}

	// Keep the outputs live so the compiler does not optimize away the
	// benchmark path.
	_ = times
	_ = rows
	_ = unmatched
}
