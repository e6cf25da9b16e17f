package parquetfs

import "time"

// Row layouts inside published part files. Partition columns are encoded in
// the directory names, not the files, so the partitioned tables carry fewer
// columns here than their canonical rows.

// SongFile is the part-file layout of the songs table; year and artist_id
// live in the directory name.
type SongFile struct {
	SongID   string  `parquet:"song_id"`
	Title    string  `parquet:"title"`
	Duration float64 `parquet:"duration"`
}

// ArtistFile is the part-file layout of the artists table.
type ArtistFile struct {
	ArtistID  string   `parquet:"artist_id"`
	Name      string   `parquet:"name"`
	Location  *string  `parquet:"location,optional"`
	Latitude  *float64 `parquet:"latitude,optional"`
	Longitude *float64 `parquet:"longitude,optional"`
}

// UserFile is the part-file layout of the users table.
type UserFile struct {
	UserID    string  `parquet:"user_id"`
	FirstName *string `parquet:"first_name,optional"`
	LastName  *string `parquet:"last_name,optional"`
	Gender    *string `parquet:"gender,optional"`
	Level     string  `parquet:"level"`
}

// TimeFile is the part-file layout of the time table; year and month live
// in the directory name.
type TimeFile struct {
	Timestamp int64     `parquet:"timestamp"`
	Datetime  time.Time `parquet:"datetime,timestamp(millisecond)"`
	Hour      int       `parquet:"hour"`
	Day       int       `parquet:"day"`
	Week      int       `parquet:"week"`
	Weekday   int       `parquet:"weekday"`
}

// SongplayFile is the part-file layout of the songplays table; year and
// month live in the directory name.
type SongplayFile struct {
	SongplayID int64   `parquet:"songplay_id"`
	StartTime  int64   `parquet:"start_time"`
	UserID     string  `parquet:"user_id"`
	Level      string  `parquet:"level"`
	SongID     *string `parquet:"song_id,optional"`
	ArtistID   *string `parquet:"artist_id,optional"`
	SessionID  int64   `parquet:"session_id"`
	Location   *string `parquet:"location,optional"`
	UserAgent  *string `parquet:"user_agent,optional"`
}
