package ui

import (
	"strings"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
)

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#000000", "#000000", "#000000", "#000000")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Title", p.Title("Playlists"), "Playlists"},
		{"OK", p.OK("saved"), "✓ saved"},
		{"Err", p.Err("failed"), "✗ failed"},
		{"Warn", p.Warn("careful"), "careful"},
		{"Help", p.Help("usage"), "usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, tt.got)
			}
		})
	}
}

func TestSongTable(t *testing.T) {
	songs := []models.Song{
		{ID: "a", Title: "Hello", Artist: "Adele", Album: "25", Duration: 295},
		{ID: "b", Title: "Chart Song", Artist: "Someone", Deferred: true},
	}

	out := SongTable(songs, "a")
	for _, want := range []string{"Title", "Artist", "Hello", "Adele", "4:55", "Chart Song", "0:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}

	if empty := SongTable(nil, ""); !strings.Contains(empty, "Title") {
		t.Errorf("expected headers on empty table, got:\n%s", empty)
	}
}

func TestPlaylistTable(t *testing.T) {
	out := PlaylistTable([]PlaylistRow{
		{Title: models.LibraryTitle, Songs: 3, Duration: 600},
		{Title: "Road Trip", Songs: 1, Duration: 3700, Editable: true},
	})

	for _, want := range []string{"Library", "Read-only", "10:00", "Road Trip", "Editable", "1:01:40"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}
}
