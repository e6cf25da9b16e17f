// Package catalog extracts the song and artist dimensions from the raw
// song catalog and builds the join index the fact builder matches events
// against.
package catalog

import (
	"strconv"

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/transformer"
)

// Songs projects catalog records onto the songs dimension, deduplicated by
// full row. An empty catalog yields an empty table.
func Songs(recs []schema.SongMeta) []schema.SongRow {
	rows := make([]schema.SongRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, schema.SongRow{
			SongID:   r.SongID,
			Title:    r.Title,
			ArtistID: r.ArtistID,
			Year:     r.Year,
			Duration: r.Duration,
		})
	}
	return transformer.DeDup(rows)
}

// Artists projects catalog records onto the artists dimension,
// deduplicated by full row. An artist appearing under several songs with
// identical attributes collapses to one row.
func Artists(recs []schema.SongMeta) []schema.ArtistRow {
	rows := make([]schema.ArtistRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, schema.ArtistRow{
			ArtistID:  r.ArtistID,
			Name:      r.ArtistName,
			Location:  r.ArtistLocation,
			Latitude:  r.ArtistLatitude,
			Longitude: r.ArtistLongitude,
		})
	}
	return transformer.DeDup(rows)
}

// Match is the catalog side of a successful join.
type Match struct {
	SongID   string
	ArtistID string
}

// Index maps exact, case-sensitive (title, artist name) pairs to their
// catalog identifiers.
type Index struct {
	entries   map[string]indexEntry
	ambiguous int
}

type indexEntry struct {
	Match
	conflicted bool
}

// BuildIndex builds the join index from raw catalog records. When the
// catalog carries one (title, artist name) pair under different
// identifiers, the entry with the lowest song id wins, ties broken by
// lowest artist id, independent of record order.
func BuildIndex(recs []schema.SongMeta) *Index {
	ix := &Index{entries: make(map[string]indexEntry, len(recs))}
	var buf []byte
	for _, r := range recs {
		buf = pairKey(buf[:0], r.Title, r.ArtistName)
		cand := Match{SongID: r.SongID, ArtistID: r.ArtistID}
		prev, ok := ix.entries[string(buf)]
		if !ok {
			ix.entries[string(buf)] = indexEntry{Match: cand}
			continue
		}
		if cand == prev.Match {
			continue
		}
		if !prev.conflicted {
			prev.conflicted = true
			ix.ambiguous++
		}
		if cand.SongID < prev.SongID ||
			(cand.SongID == prev.SongID && cand.ArtistID < prev.ArtistID) {
			prev.Match = cand
		}
		ix.entries[string(buf)] = prev
	}
	return ix
}

// Lookup resolves a (title, artist name) pair. The zero Match and false
// mean no catalog entry matches exactly.
func (ix *Index) Lookup(title, artist string) (Match, bool) {
	var buf [64]byte
	e, ok := ix.entries[string(pairKey(buf[:0], title, artist))]
	return e.Match, ok
}

// Len reports the number of distinct (title, artist name) pairs.
func (ix *Index) Len() int { return len(ix.entries) }

// AmbiguousPairs reports how many pairs carried conflicting identifiers
// and needed the tie-break.
func (ix *Index) AmbiguousPairs() int { return ix.ambiguous }

// pairKey length-prefixes the title so a separator inside either string
// cannot alias the boundary between them.
func pairKey(dst []byte, title, artist string) []byte {
	dst = strconv.AppendInt(dst, int64(len(title)), 10)
	dst = append(dst, ':')
	dst = append(dst, title...)
	dst = append(dst, 0x1f)
	return append(dst, artist...)
}
