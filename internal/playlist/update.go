package playlist

import (
	"time"

	"github.com/desertthunder/jukebox/internal/models"
)

// Update is a typed change applied through [Playlist.Update].
type Update interface {
	apply(p *Playlist) bool
}

// Rename changes the title. The library playlist cannot be renamed and no playlist can take the library title.
type Rename struct {
	Title string
}

func (u Rename) apply(p *Playlist) bool {
	if !p.editable || u.Title == "" || u.Title == models.LibraryTitle || u.Title == p.title {
		return false
	}
	p.title = u.Title
	p.touch()
	return true
}

// Touch sets the updated timestamp; a zero At means now.
type Touch struct {
	At time.Time
}

func (u Touch) apply(p *Playlist) bool {
	if u.At.IsZero() {
		p.touch()
		return true
	}
	p.updatedAt = u.At
	return true
}

// ReplaceSongs swaps the whole member list. Repeated ids keep their first position.
type ReplaceSongs struct {
	IDs []string
}

func (u ReplaceSongs) apply(p *Playlist) bool {
	p.songs = uniqueIDs(u.IDs)
	p.raw = nil
	p.resolved = false
	p.shuffled = nil
	p.touch()
	return true
}

// Update applies u and notifies listeners when it changed something.
func (p *Playlist) Update(u Update) bool {
	if u == nil || !u.apply(p) {
		return false
	}
	p.notify()
	return true
}
