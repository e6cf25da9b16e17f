package schema

import (
	"bytes"
	"testing"
	"time"
)

// A nil pointer and a pointer to "" are different rows under full-row
// equality and must not share a key.
func TestRowKeyNilVersusEmpty(t *testing.T) {
	a := ArtistRow{ArtistID: "AR1", Name: "Band", Location: nil}
	b := ArtistRow{ArtistID: "AR1", Name: "Band", Location: strPtr("")}
	if bytes.Equal(a.AppendKey(nil), b.AppendKey(nil)) {
		t.Fatal("nil and empty location collapsed to one key")
	}
}

// Field values containing the separator byte must not shift content across
// field boundaries.
func TestRowKeySeparatorInValue(t *testing.T) {
	a := UserRow{UserID: "a\x1f", FirstName: strPtr("b"), Level: "free"}
	b := UserRow{UserID: "a", FirstName: strPtr("\x1fb"), Level: "free"}
	if bytes.Equal(a.AppendKey(nil), b.AppendKey(nil)) {
		t.Fatal("separator inside a value aliased a field boundary")
	}
}

func TestRowKeyStable(t *testing.T) {
	r := TimeRow{
		Timestamp: 1541640000796,
		Datetime:  time.UnixMilli(1541640000796).UTC(),
		Hour:      1, Day: 8, Week: 45, Month: 11, Year: 2018, Weekday: 3,
	}
	if got, want := r.AppendKey(nil), r.AppendKey(nil); !bytes.Equal(got, want) {
		t.Fatalf("key not stable: %q vs %q", got, want)
	}
}

func TestRowKeyDistinguishesFloats(t *testing.T) {
	a := SongRow{SongID: "S1", Title: "T", ArtistID: "AR1", Year: 2000, Duration: 180.5}
	b := a
	b.Duration = 180.5000001
	if bytes.Equal(a.AppendKey(nil), b.AppendKey(nil)) {
		t.Fatal("distinct durations collapsed to one key")
	}
}
