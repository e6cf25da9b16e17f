// Package schema defines the typed records flowing through the pipeline:
// the two raw input record shapes and the five output table rows.
package schema

import "time"

// Table names as published by every storage backend.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// SongRow is one row of the songs dimension. Partitioned by (year, artist_id).
type SongRow struct {
	SongID   string  `db:"song_id"`
	Title    string  `db:"title"`
	ArtistID string  `db:"artist_id"`
	Year     int     `db:"year"`
	Duration float64 `db:"duration"` // seconds
}

// ArtistRow is one row of the artists dimension. Unpartitioned.
type ArtistRow struct {
	ArtistID  string   `db:"artist_id"`
	Name      string   `db:"name"`
	Location  *string  `db:"location"`
	Latitude  *float64 `db:"latitude"`
	Longitude *float64 `db:"longitude"`
}

// UserRow is one row of the users dimension. Unpartitioned.
//
// Dedup is by full row, so a user whose subscription level changed during
// the window yields one row per distinct level. That is a property of the
// source data and is kept visible rather than collapsed.
type UserRow struct {
	UserID    string  `db:"user_id"`
	FirstName *string `db:"first_name"`
	LastName  *string `db:"last_name"`
	Gender    *string `db:"gender"`
	Level     string  `db:"level"`
}

// TimeRow is one row of the time dimension, one per distinct event
// timestamp. Every field besides Timestamp is derived from it in UTC.
// Partitioned by (year, month).
type TimeRow struct {
	Timestamp int64     `db:"timestamp"` // epoch milliseconds
	Datetime  time.Time `db:"datetime"`  // UTC
	Hour      int       `db:"hour"`
	Day       int       `db:"day"`
	Week      int       `db:"week"` // ISO week number
	Month     int       `db:"month"`
	Year      int       `db:"year"`
	Weekday   int       `db:"weekday"` // Monday=0 .. Sunday=6
}

// SongplayRow is one row of the songplay fact table. Partitioned by
// (year, month).
//
// SongplayID is synthetic: strictly increasing per join partition and
// unique within a run, but neither contiguous nor stable across runs.
// Callers must not use it as an external identifier.
type SongplayRow struct {
	SongplayID int64   `db:"songplay_id"`
	StartTime  int64   `db:"start_time"` // epoch milliseconds
	Year       int     `db:"year"`
	Month      int     `db:"month"`
	UserID     string  `db:"user_id"`
	Level      string  `db:"level"`
	SongID     *string `db:"song_id"`
	ArtistID   *string `db:"artist_id"`
	SessionID  int64   `db:"session_id"`
	Location   *string `db:"location"`
	UserAgent  *string `db:"user_agent"`
}
