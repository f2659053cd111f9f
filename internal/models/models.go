// package models defines the data model for the jukebox library
package models

import (
	"fmt"
	"strings"
	"time"
)

// LibraryTitle is the reserved title of the non-editable library playlist.
const LibraryTitle = "Library"

// Song is a song record. Deferred songs come from chart feeds and have not been matched to a playable source yet.
type Song struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Cover       string `json:"cover"`
	Duration    int    `json:"duration"` // seconds
	TrackNumber int    `json:"track_number"`
	DiscNumber  int    `json:"disc_number"`
	Source      string `json:"source,omitempty"`
	Deferred    bool   `json:"deferred,omitempty"`
}

// SongResolver materialises song ids into records.
type SongResolver interface {
	FindByID(id string) (Song, bool)
}

// SongIndex is an in-memory [SongResolver].
type SongIndex map[string]Song

// FindByID implements [SongResolver].
func (idx SongIndex) FindByID(id string) (Song, bool) {
	s, ok := idx[id]
	return s, ok
}

// Add stores songs by id, replacing existing records.
func (idx SongIndex) Add(songs ...Song) {
	for _, s := range songs {
		idx[s.ID] = s
	}
}

// SortDirection selects the order of a playlist sort.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

func (d SortDirection) String() string {
	switch d {
	case SortAscending:
		return "ascending"
	case SortDescending:
		return "descending"
	default:
		return "none"
	}
}

// ParseSortDirection accepts none, asc[ending], desc[ending].
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	}
	return SortNone, fmt.Errorf("unknown sort direction %q", s)
}

// SortColumn names the song field a playlist is sorted by.
type SortColumn string

const (
	ColumnNone        SortColumn = ""
	ColumnTitle       SortColumn = "title"
	ColumnArtist      SortColumn = "artist"
	ColumnAlbum       SortColumn = "album"
	ColumnDuration    SortColumn = "duration"
	ColumnTrackNumber SortColumn = "track"
	ColumnDiscNumber  SortColumn = "disc"
)

// ParseSortColumn validates a column name.
func ParseSortColumn(s string) (SortColumn, error) {
	c := SortColumn(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ColumnNone, ColumnTitle, ColumnArtist, ColumnAlbum, ColumnDuration, ColumnTrackNumber, ColumnDiscNumber:
		return c, nil
	}
	return ColumnNone, fmt.Errorf("unknown sort column %q", s)
}

// PlaylistSnapshot is the serialized form of a playlist. Timestamps are milliseconds since the epoch.
type PlaylistSnapshot struct {
	Title     string   `json:"title"`
	Editable  bool     `json:"editable"`
	Songs     []string `json:"songs"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// Created returns CreatedAt as a [time.Time].
func (s PlaylistSnapshot) Created() time.Time { return time.UnixMilli(s.CreatedAt) }

// Updated returns UpdatedAt as a [time.Time].
func (s PlaylistSnapshot) Updated() time.Time { return time.UnixMilli(s.UpdatedAt) }
