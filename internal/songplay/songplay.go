// Package songplay builds the songplay fact table by joining filtered
// events against the song catalog.
package songplay

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pamo12/data-lake/internal/catalog"
	"github.com/pamo12/data-lake/internal/events"
	"github.com/pamo12/data-lake/internal/schema"
)

// idBits is the width of the partition-local counter inside a songplay id.
// The partition index occupies the bits above it, so ids from different
// partitions cannot collide. A partition can stamp 2^33 rows before its
// counter would bleed into the partition bits.
const idBits = 33

// Build joins evts, already filtered to song plays, against the catalog
// index and returns the fact rows plus the events that matched nothing.
// The join is inner and exact: an event whose (song, artist) pair has no
// catalog entry is dropped from the fact table and only surfaces in the
// unmatched slice, which exists for diagnostics.
//
// Events are split into one contiguous chunk per partition. Ids are
// strictly increasing within a partition and unique across the run, but
// neither contiguous nor stable across runs with a different partition
// count.
func Build(ctx context.Context, evts []schema.LogEvent, ix *catalog.Index, partitions int) ([]schema.SongplayRow, []schema.LogEvent, error) {
	if partitions < 1 {
		partitions = 1
	}
	type chunk struct {
		rows      []schema.SongplayRow
		unmatched []schema.LogEvent
	}
	out := make([]chunk, partitions)

	g, ctx := errgroup.WithContext(ctx)
	for p := 0; p < partitions; p++ {
		lo := len(evts) * p / partitions
		hi := len(evts) * (p + 1) / partitions
		c := &out[p]
		base := int64(p) << idBits
		g.Go(func() error {
			var seq int64
			for i, e := range evts[lo:hi] {
				if i&1023 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if e.Song == nil || e.Artist == nil {
					c.unmatched = append(c.unmatched, e)
					continue
				}
				m, ok := ix.Lookup(*e.Song, *e.Artist)
				if !ok {
					c.unmatched = append(c.unmatched, e)
					continue
				}
				t := events.DeriveTime(e.TS)
				songID, artistID := m.SongID, m.ArtistID
				c.rows = append(c.rows, schema.SongplayRow{
					SongplayID: base | seq,
					StartTime:  e.TS,
					Year:       t.Year,
					Month:      t.Month,
					UserID:     e.UserID,
					Level:      e.Level,
					SongID:     &songID,
					ArtistID:   &artistID,
					SessionID:  e.SessionID,
					Location:   e.Location,
					UserAgent:  e.UserAgent,
				})
				seq++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var nRows, nMiss int
	for _, c := range out {
		nRows += len(c.rows)
		nMiss += len(c.unmatched)
	}
	rows := make([]schema.SongplayRow, 0, nRows)
	unmatched := make([]schema.LogEvent, 0, nMiss)
	for _, c := range out {
		rows = append(rows, c.rows...)
		unmatched = append(unmatched, c.unmatched...)
	}
	return rows, unmatched, nil
}
