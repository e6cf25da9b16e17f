// Package events turns the raw activity log into the user and time
// dimension tables.
package events

import (
	"time"

	"github.com/pamo12/data-lake/internal/schema"
	"github.com/pamo12/data-lake/internal/transformer"
)

// pageNextSong marks an event as an actual song play. The match is exact
// and case-sensitive.
const pageNextSong = "NextSong"

// Filter returns the events that record a song play. Every output table
// derives from this filtered set only.
func Filter(evts []schema.LogEvent) []schema.LogEvent {
	out := make([]schema.LogEvent, 0, len(evts))
	for _, e := range evts {
		if e.Page == pageNextSong {
			out = append(out, e)
		}
	}
	return out
}

// Users projects filtered events onto the users dimension and collapses
// duplicates by full row. Callers pass the output of Filter.
func Users(evts []schema.LogEvent) []schema.UserRow {
	rows := make([]schema.UserRow, 0, len(evts))
	for _, e := range evts {
		rows = append(rows, schema.UserRow{
			UserID:    e.UserID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			Level:     e.Level,
		})
	}
	return transformer.DeDup(rows)
}

// Times builds the time dimension from filtered events: one row per
// distinct timestamp. Derivation is pure, so full-row dedup coincides
// with timestamp dedup.
func Times(evts []schema.LogEvent) []schema.TimeRow {
	rows := make([]schema.TimeRow, 0, len(evts))
	for _, e := range evts {
		rows = append(rows, DeriveTime(e.TS))
	}
	return transformer.DeDup(rows)
}

// DeriveTime decomposes an epoch-millisecond timestamp into the calendar
// fields of the time dimension. The conversion is fixed to UTC; runs must
// not depend on the host timezone. Weekday counts Monday as 0, Week is the
// ISO 8601 week number, which near year boundaries can belong to the
// neighboring year's week numbering.
func DeriveTime(ts int64) schema.TimeRow {
	t := time.UnixMilli(ts).UTC()
	_, week := t.ISOWeek()
	return schema.TimeRow{
		Timestamp: ts,
		Datetime:  t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}
