package playlist

import (
	"slices"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
)

// Attrs describes a playlist to create or restore.
type Attrs struct {
	Title     string
	Songs     []string
	CreatedAt time.Time // honored by [Store.Initialise] only
	UpdatedAt time.Time
}

// Playlist is a named, ordered list of song ids plus sort and shuffle presentation state.
type Playlist struct {
	store *Store

	title     string
	songs     []string
	raw       []models.Song
	editable  bool
	createdAt time.Time
	updatedAt time.Time

	sortColumn    models.SortColumn
	sortDirection models.SortDirection

	songData []models.Song
	resolved bool
	shuffled []models.Song
}

func newPlaylist(s *Store, attrs Attrs) *Playlist {
	return &Playlist{
		store:     s,
		title:     attrs.Title,
		songs:     uniqueIDs(attrs.Songs),
		editable:  attrs.Title != models.LibraryTitle,
		createdAt: attrs.CreatedAt,
		updatedAt: attrs.UpdatedAt,
	}
}

func (p *Playlist) Title() string                       { return p.title }
func (p *Playlist) Editable() bool                      { return p.editable }
func (p *Playlist) CreatedAt() time.Time                { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time                { return p.updatedAt }
func (p *Playlist) SortColumn() models.SortColumn       { return p.sortColumn }
func (p *Playlist) SortDirection() models.SortDirection { return p.sortDirection }
func (p *Playlist) Len() int                            { return len(p.songs) }

// SongIDs returns a copy of the member ids in playback order.
func (p *Playlist) SongIDs() []string {
	return slices.Clone(p.songs)
}

// Contains reports whether id is a member.
func (p *Playlist) Contains(id string) bool {
	return slices.Contains(p.songs, id)
}

// AddSong appends id unless it is already a member.
func (p *Playlist) AddSong(id string) bool {
	if id == "" || p.Contains(id) {
		return false
	}
	p.songs = append(p.songs, id)
	p.membershipChanged()
	return true
}

// RemoveSong removes the first occurrence of id.
func (p *Playlist) RemoveSong(id string) bool {
	idx := slices.Index(p.songs, id)
	if idx == -1 {
		return false
	}
	p.songs = slices.Delete(p.songs, idx, idx+1)
	p.membershipChanged()
	return true
}

// Reorder moves the song at oldIndex to newIndex, shifting the songs in between.
//
// Both indices must lie in [0, Len()); anything else is a no-op.
func (p *Playlist) Reorder(oldIndex, newIndex int) bool {
	n := len(p.songs)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return false
	}
	if oldIndex == newIndex {
		return false
	}

	item := p.songs[oldIndex]
	p.songs = slices.Delete(p.songs, oldIndex, oldIndex+1)
	p.songs = slices.Insert(p.songs, newIndex, item)

	p.resolved = false
	p.touch()
	p.notify()
	return true
}

// SortBy sets the sort state. It is applied the next time songs are read and does not notify listeners.
func (p *Playlist) SortBy(column models.SortColumn, direction models.SortDirection) {
	p.sortColumn = column
	p.sortDirection = direction
	p.resolved = false
}

// SetSongs installs song records directly instead of resolving ids, rewriting the member ids to match.
//
// The library playlist is populated this way. Listeners are not notified.
func (p *Playlist) SetSongs(songs []models.Song) {
	p.raw = make([]models.Song, 0, len(songs))
	seen := make(map[string]bool, len(songs))
	for _, s := range songs {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		p.raw = append(p.raw, s)
	}

	p.songs = make([]string, len(p.raw))
	for i, s := range p.raw {
		p.songs[i] = s.ID
	}
	p.resolved = false
	p.shuffled = nil
}

// Songs returns the resolved songs, sorted by the active sort state.
func (p *Playlist) Songs() []models.Song {
	return slices.Clone(p.songList())
}

// Serialize returns the persisted form of p.
func (p *Playlist) Serialize() models.PlaylistSnapshot {
	return models.PlaylistSnapshot{
		Title:     p.title,
		Editable:  p.editable,
		Songs:     p.SongIDs(),
		CreatedAt: p.createdAt.UnixMilli(),
		UpdatedAt: p.updatedAt.UnixMilli(),
	}
}

func (p *Playlist) songList() []models.Song {
	if p.resolved {
		return p.songData
	}

	p.songData = p.resolve()
	if p.sortColumn != models.ColumnNone && p.sortDirection != models.SortNone {
		sortSongs(p.songData, p.sortColumn, p.sortDirection)
	}
	p.resolved = true
	return p.songData
}

func (p *Playlist) resolve() []models.Song {
	if p.raw != nil {
		return slices.Clone(p.raw)
	}

	out := make([]models.Song, 0, len(p.songs))
	if p.store == nil {
		return out
	}
	resolver := p.store.songResolver()
	if resolver == nil {
		return out
	}
	for _, id := range p.songs {
		if s, ok := resolver.FindByID(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// replaceID swaps old for new in the member list. A playlist already holding new just drops old.
func (p *Playlist) replaceID(oldID, newID string) bool {
	idx := slices.Index(p.songs, oldID)
	if idx == -1 {
		return false
	}

	if p.Contains(newID) {
		p.songs = slices.Delete(p.songs, idx, idx+1)
	} else {
		p.songs[idx] = newID
	}

	for i := range p.raw {
		if p.raw[i].ID == oldID {
			p.raw[i].ID = newID
		}
	}

	p.resolved = false
	p.shuffled = nil
	p.touch()
	return true
}

func (p *Playlist) membershipChanged() {
	p.resolved = false
	p.shuffled = nil
	p.touch()
	p.notify()
}

func (p *Playlist) touch() {
	if p.store != nil {
		p.updatedAt = p.store.now()
	} else {
		p.updatedAt = time.Now()
	}
}

func (p *Playlist) notify() {
	if p.store != nil {
		p.store.change()
	}
}

// uniqueIDs copies ids, dropping empty ids and repeats while keeping first occurrences.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
