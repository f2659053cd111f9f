package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

var (
	headerStyle  = NewBold("#7D56F4").Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	currentStyle = NewBold("#04B575").Padding(0, 1)
	mutedStyle   = NewEm("#626262").Padding(0, 1)
)

// PlaylistRow is one line of [PlaylistTable].
type PlaylistRow struct {
	Title    string
	Songs    int
	Duration int // seconds
	Editable bool
}

// SongTable renders songs with their position. The row whose id equals current is highlighted;
// deferred songs are dimmed.
func SongTable(songs []models.Song, current string) string {
	rows := make([][]string, len(songs))
	for i, s := range songs {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.Title,
			s.Artist,
			s.Album,
			shared.FormatDuration(s.Duration),
			s.ID,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(NewStyle("#626262")).
		Headers("#", "Title", "Artist", "Album", "Length", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(songs):
				return cellStyle
			case songs[row].ID == current && current != "":
				return currentStyle
			case songs[row].Deferred:
				return mutedStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

// PlaylistTable renders a playlist overview.
func PlaylistTable(playlists []PlaylistRow) string {
	rows := make([][]string, len(playlists))
	for i, p := range playlists {
		rows[i] = []string{
			p.Title,
			strconv.Itoa(p.Songs),
			shared.FormatDuration(p.Duration),
			shared.EditableString(p.Editable),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(NewStyle("#626262")).
		Headers("Title", "Songs", "Length", "Access").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
