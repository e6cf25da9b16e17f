package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SongMeta is one raw record of the song catalog.
type SongMeta struct {
	SongID          string
	Title           string
	ArtistID        string
	Year            int
	Duration        float64
	ArtistName      string
	ArtistLocation  *string
	ArtistLatitude  *float64
	ArtistLongitude *float64
}

// LogEvent is one raw record of the activity log. Only events whose Page is
// "NextSong" feed the output tables, but decoding happens before the filter,
// so every nullable field must tolerate JSON null.
type LogEvent struct {
	UserID    string
	FirstName *string
	LastName  *string
	Gender    *string
	Level     string
	Page      string
	TS        int64 // epoch milliseconds
	Song      *string
	Artist    *string
	SessionID int64
	Location  *string
	UserAgent *string
}

// Required keys per source. A key that is absent from a raw object is a
// schema mismatch and aborts the run; a key that is present with a JSON
// null decodes to the field's null representation and flows through.
var (
	songKeys = []string{
		"song_id", "title", "artist_id", "year", "duration",
		"artist_name", "artist_location", "artist_latitude", "artist_longitude",
	}
	eventKeys = []string{
		"userId", "firstName", "lastName", "gender", "level", "page",
		"ts", "song", "artist", "sessionId", "location", "userAgent",
	}
)

// FieldError reports a raw input record that does not match the shape the
// pipeline expects. It is fatal: silently dropping fields would corrupt the
// downstream join.
type FieldError struct {
	Source  string   // "song" or "event"
	Missing []string // required keys absent from the record
	Field   string   // set when a present field failed to convert
	Err     error
}

func (e *FieldError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s record: missing required fields %v", e.Source, e.Missing)
	}
	return fmt.Sprintf("%s record: field %q: %v", e.Source, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// DecodeSong binds one raw catalog object to a SongMeta. Keys beyond the
// required set are ignored.
func DecodeSong(raw map[string]json.RawMessage) (SongMeta, error) {
	if miss := missingKeys(raw, songKeys); len(miss) > 0 {
		return SongMeta{}, &FieldError{Source: "song", Missing: miss}
	}
	d := fieldDec{source: "song", raw: raw}
	s := SongMeta{
		SongID:          d.str("song_id"),
		Title:           d.str("title"),
		ArtistID:        d.str("artist_id"),
		Year:            d.intv("year"),
		Duration:        d.f64("duration"),
		ArtistName:      d.str("artist_name"),
		ArtistLocation:  d.strPtr("artist_location"),
		ArtistLatitude:  d.f64Ptr("artist_latitude"),
		ArtistLongitude: d.f64Ptr("artist_longitude"),
	}
	if d.err != nil {
		return SongMeta{}, d.err
	}
	return s, nil
}

// DecodeEvent binds one raw activity-log object to a LogEvent. Keys beyond
// the required set (auth, method, status, ...) are ignored.
func DecodeEvent(raw map[string]json.RawMessage) (LogEvent, error) {
	if miss := missingKeys(raw, eventKeys); len(miss) > 0 {
		return LogEvent{}, &FieldError{Source: "event", Missing: miss}
	}
	d := fieldDec{source: "event", raw: raw}
	e := LogEvent{
		UserID:    d.stringy("userId"),
		FirstName: d.strPtr("firstName"),
		LastName:  d.strPtr("lastName"),
		Gender:    d.strPtr("gender"),
		Level:     d.str("level"),
		Page:      d.str("page"),
		TS:        d.i64("ts"),
		Song:      d.strPtr("song"),
		Artist:    d.strPtr("artist"),
		SessionID: d.i64("sessionId"),
		Location:  d.strPtr("location"),
		UserAgent: d.strPtr("userAgent"),
	}
	if d.err != nil {
		return LogEvent{}, d.err
	}
	return e, nil
}

func missingKeys(raw map[string]json.RawMessage, want []string) []string {
	var miss []string
	for _, k := range want {
		if _, ok := raw[k]; !ok {
			miss = append(miss, k)
		}
	}
	return miss
}

var nullLiteral = []byte("null")

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, nullLiteral)
}

// fieldDec converts individual fields of one raw object, remembering the
// first conversion failure so call sites stay flat.
type fieldDec struct {
	source string
	raw    map[string]json.RawMessage
	err    error
}

// field decodes raw[key] into dst. Returns false for JSON null (dst is left
// untouched) and on conversion failure.
func (d *fieldDec) field(key string, dst any) bool {
	if d.err != nil {
		return false
	}
	raw := d.raw[key]
	if isNull(raw) {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.err = &FieldError{Source: d.source, Field: key, Err: err}
		return false
	}
	return true
}

func (d *fieldDec) str(key string) string {
	var s string
	d.field(key, &s)
	return s
}

func (d *fieldDec) strPtr(key string) *string {
	var s string
	if !d.field(key, &s) {
		return nil
	}
	return &s
}

func (d *fieldDec) f64(key string) float64 {
	var f float64
	d.field(key, &f)
	return f
}

func (d *fieldDec) f64Ptr(key string) *float64 {
	var f float64
	if !d.field(key, &f) {
		return nil
	}
	return &f
}

func (d *fieldDec) i64(key string) int64 {
	var n int64
	d.field(key, &n)
	return n
}

func (d *fieldDec) intv(key string) int {
	var n int
	d.field(key, &n)
	return n
}

// stringy accepts a JSON string or number and yields it as a string. Log
// exports carry numeric user ids both quoted and bare.
func (d *fieldDec) stringy(key string) string {
	if d.err != nil {
		return ""
	}
	raw := d.raw[key]
	if isNull(raw) {
		return ""
	}
	if raw[0] == '"' {
		return d.str(key)
	}
	var n json.Number
	if !d.field(key, &n) {
		return ""
	}
	return n.String()
}
