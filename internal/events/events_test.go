package events

import (
	"reflect"
	"testing"
	"time"

	"github.com/pamo12/data-lake/internal/schema"
)

func play(userID, level string, ts, session int64) schema.LogEvent {
	return schema.LogEvent{
		UserID: userID, Level: level, Page: "NextSong",
		TS: ts, SessionID: session,
	}
}

func TestFilterKeepsOnlyNextSong(t *testing.T) {
	in := []schema.LogEvent{
		play("1", "free", 1541640000796, 38),
		{UserID: "1", Level: "free", Page: "Home", TS: 1541640000796},
		{UserID: "2", Level: "paid", Page: "PageView", TS: 1541640001000},
		{UserID: "3", Level: "free", Page: "nextsong", TS: 1541640002000},
		play("2", "paid", 1541640003000, 40),
	}
	got := Filter(in)
	if len(got) != 2 {
		t.Fatalf("retained %d events, want 2: %#v", len(got), got)
	}
	for _, e := range got {
		if e.Page != "NextSong" {
			t.Fatalf("retained page %q", e.Page)
		}
	}
}

func TestDeriveTime(t *testing.T) {
	// 2018-11-08T01:20:00Z, a Thursday in ISO week 45.
	got := DeriveTime(1541640000000)
	want := schema.TimeRow{
		Timestamp: 1541640000000,
		Datetime:  time.Date(2018, 11, 8, 1, 20, 0, 0, time.UTC),
		Hour:      1, Day: 8, Week: 45, Month: 11, Year: 2018, Weekday: 3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestDeriveTimeWeekdayRange(t *testing.T) {
	cases := []struct {
		ts      int64
		weekday int
	}{
		{1541376000000, 0}, // 2018-11-05, Monday
		{1541640000000, 3}, // 2018-11-08, Thursday
		{1541894400000, 6}, // 2018-11-11, Sunday
	}
	for _, c := range cases {
		if got := DeriveTime(c.ts).Weekday; got != c.weekday {
			t.Fatalf("ts %d: weekday got %d want %d", c.ts, got, c.weekday)
		}
	}
}

// Dec 31 2018 is a Monday that ISO 8601 assigns to week 1 of 2019. The
// week field follows ISO numbering while year stays calendar year.
func TestDeriveTimeISOWeekBoundary(t *testing.T) {
	got := DeriveTime(1546214400000) // 2018-12-31T00:00:00Z
	if got.Year != 2018 || got.Month != 12 || got.Day != 31 {
		t.Fatalf("date fields: %#v", got)
	}
	if got, want := got.Week, 1; got != want {
		t.Fatalf("week: got %d want %d", got, want)
	}
	if got, want := got.Weekday, 0; got != want {
		t.Fatalf("weekday: got %d want %d", got, want)
	}
}

func TestDeriveTimePure(t *testing.T) {
	a := DeriveTime(1541640000796)
	b := DeriveTime(1541640000796)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("derivation not pure: %#v vs %#v", a, b)
	}
}

func TestUsersLevelChangeYieldsTwoRows(t *testing.T) {
	evts := []schema.LogEvent{
		play("39", "free", 1541640000000, 38),
		play("39", "free", 1541640060000, 38),
		play("39", "paid", 1541726400000, 52),
	}
	got := Users(evts)
	if len(got) != 2 {
		t.Fatalf("rows: got %d want 2: %#v", len(got), got)
	}
	if got[0].Level != "free" || got[1].Level != "paid" {
		t.Fatalf("levels: %#v", got)
	}
}

// Two plays at the same timestamp in different sessions still yield one
// time row.
func TestTimesDistinctTimestamps(t *testing.T) {
	evts := []schema.LogEvent{
		play("39", "free", 1541640000000, 38),
		play("40", "paid", 1541640000000, 91),
		play("39", "free", 1541640060000, 38),
	}
	got := Times(evts)
	if len(got) != 2 {
		t.Fatalf("rows: got %d want 2: %#v", len(got), got)
	}
	if got[0].Timestamp != 1541640000000 || got[1].Timestamp != 1541640060000 {
		t.Fatalf("timestamps: %#v", got)
	}
}

func BenchmarkDeriveTime(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		DeriveTime(1541640000000 + int64(i)*60000)
	}
}
