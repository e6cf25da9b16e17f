package catalog

import (
	"reflect"
	"testing"

	"github.com/pamo12/data-lake/internal/schema"
)

func meta(songID, title, artistID, artist string) schema.SongMeta {
	return schema.SongMeta{
		SongID: songID, Title: title, ArtistID: artistID,
		Year: 2000, Duration: 180.5, ArtistName: artist,
	}
}

func TestSongsProjection(t *testing.T) {
	loc := ""
	recs := []schema.SongMeta{{
		SongID: "S1", Title: "Test", ArtistID: "AR1", Year: 2000,
		Duration: 180.5, ArtistName: "Band", ArtistLocation: &loc,
	}}
	got := Songs(recs)
	want := []schema.SongRow{{
		SongID: "S1", Title: "Test", ArtistID: "AR1", Year: 2000, Duration: 180.5,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestArtistsProjection(t *testing.T) {
	loc := ""
	recs := []schema.SongMeta{{
		SongID: "S1", Title: "Test", ArtistID: "AR1", Year: 2000,
		Duration: 180.5, ArtistName: "Band", ArtistLocation: &loc,
	}}
	got := Artists(recs)
	want := []schema.ArtistRow{{ArtistID: "AR1", Name: "Band", Location: &loc}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	if got[0].Latitude != nil || got[0].Longitude != nil {
		t.Fatalf("null coordinates must stay nil: %#v", got[0])
	}
}

func TestSongsDedup(t *testing.T) {
	recs := []schema.SongMeta{
		meta("S1", "Test", "AR1", "Band"),
		meta("S1", "Test", "AR1", "Band"),
		meta("S2", "Other", "AR1", "Band"),
	}
	if got, want := len(Songs(recs)), 2; got != want {
		t.Fatalf("songs: got %d want %d", got, want)
	}
	// One artist under two songs with identical attributes is one row.
	if got, want := len(Artists(recs)), 1; got != want {
		t.Fatalf("artists: got %d want %d", got, want)
	}
}

func TestIndexLookup(t *testing.T) {
	ix := BuildIndex([]schema.SongMeta{meta("S1", "Test", "AR1", "Band")})
	m, ok := ix.Lookup("Test", "Band")
	if !ok {
		t.Fatal("want match")
	}
	if got, want := m, (Match{SongID: "S1", ArtistID: "AR1"}); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if _, ok := ix.Lookup("Unknown", "Nobody"); ok {
		t.Fatal("want miss")
	}
}

func TestIndexCaseSensitive(t *testing.T) {
	ix := BuildIndex([]schema.SongMeta{meta("S1", "Test", "AR1", "Band")})
	if _, ok := ix.Lookup("test", "Band"); ok {
		t.Fatal("lowercased title must not match")
	}
	if _, ok := ix.Lookup("Test", "BAND"); ok {
		t.Fatal("uppercased artist must not match")
	}
}

// Duplicate (title, artist) pairs with different identifiers resolve to
// the lowest (song_id, artist_id), whatever order the records arrive in.
func TestIndexTieBreak(t *testing.T) {
	recs := []schema.SongMeta{
		meta("S2", "Test", "AR2", "Band"),
		meta("S1", "Test", "AR9", "Band"),
		meta("S3", "Test", "AR1", "Band"),
	}
	for name, in := range map[string][]schema.SongMeta{
		"forward":  recs,
		"reversed": {recs[2], recs[1], recs[0]},
	} {
		ix := BuildIndex(in)
		m, ok := ix.Lookup("Test", "Band")
		if !ok {
			t.Fatalf("%s: want match", name)
		}
		if got, want := m, (Match{SongID: "S1", ArtistID: "AR9"}); got != want {
			t.Fatalf("%s: got %+v want %+v", name, got, want)
		}
		if got, want := ix.AmbiguousPairs(), 1; got != want {
			t.Fatalf("%s: ambiguous pairs: got %d want %d", name, got, want)
		}
	}
}

// Re-listed identical records are duplicates, not ambiguity.
func TestIndexDuplicateRecordsNotAmbiguous(t *testing.T) {
	ix := BuildIndex([]schema.SongMeta{
		meta("S1", "Test", "AR1", "Band"),
		meta("S1", "Test", "AR1", "Band"),
	})
	if got, want := ix.AmbiguousPairs(), 0; got != want {
		t.Fatalf("ambiguous pairs: got %d want %d", got, want)
	}
}

func TestEmptyCatalog(t *testing.T) {
	if got := Songs(nil); len(got) != 0 {
		t.Fatalf("songs from empty catalog: %#v", got)
	}
	if got := Artists(nil); len(got) != 0 {
		t.Fatalf("artists from empty catalog: %#v", got)
	}
	ix := BuildIndex(nil)
	if got, want := ix.Len(), 0; got != want {
		t.Fatalf("index size: got %d want %d", got, want)
	}
	if _, ok := ix.Lookup("Test", "Band"); ok {
		t.Fatal("empty index must not match")
	}
}
