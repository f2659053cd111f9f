package playlist

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

var defaultIntN = rand.IntN

// Listener receives the playlist collection after every change.
type Listener func(playlists []*Playlist)

// ListenerID identifies a registered [Listener] for removal.
type ListenerID int

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Store owns a collection of playlists and the listeners observing it.
type Store struct {
	mu        sync.Mutex
	playlists []*Playlist
	listeners []listenerEntry
	nextID    ListenerID

	resolver models.SongResolver
	now      func() time.Time
	logger   *log.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a [Store].
type Option func(*Store)

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand sets the random source used for shuffles.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store resolving song ids through resolver, which may be nil.
func NewStore(resolver models.SongResolver, opts ...Option) *Store {
	s := &Store{
		resolver: resolver,
		now:      time.Now,
		logger:   shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetResolver swaps the song resolver. Cached song data is dropped.
func (s *Store) SetResolver(resolver models.SongResolver) {
	s.mu.Lock()
	s.resolver = resolver
	playlists := slices.Clone(s.playlists)
	s.mu.Unlock()

	for _, p := range playlists {
		p.resolved = false
		p.shuffled = nil
	}
}

func (s *Store) songResolver() models.SongResolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver
}

// Initialise replaces the collection with playlists restored from snapshots. Listeners are not notified.
func (s *Store) Initialise(snapshots []models.PlaylistSnapshot) {
	restored := make([]*Playlist, 0, len(snapshots))
	for _, snap := range snapshots {
		attrs := Attrs{
			Title:     snap.Title,
			Songs:     snap.Songs,
			CreatedAt: snap.Created(),
			UpdatedAt: snap.Updated(),
		}
		if snap.CreatedAt == 0 {
			attrs.CreatedAt = s.now()
		}
		if snap.UpdatedAt == 0 {
			attrs.UpdatedAt = attrs.CreatedAt
		}
		restored = append(restored, newPlaylist(s, attrs))
	}

	s.mu.Lock()
	s.playlists = restored
	s.mu.Unlock()

	s.logger.Debug("initialised playlists", "count", len(restored))
}

// Reset empties the collection and keeps the listeners.
func (s *Store) Reset() {
	s.mu.Lock()
	s.playlists = nil
	s.mu.Unlock()
}

// Close empties the collection and drops every listener.
func (s *Store) Close() {
	s.mu.Lock()
	s.playlists = nil
	s.listeners = nil
	s.mu.Unlock()
}

// IsEmpty reports whether the collection has no playlists.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playlists) == 0
}

// Create appends a new playlist stamped with the current time and notifies listeners.
//
// Titles are not checked for uniqueness.
func (s *Store) Create(attrs Attrs) *Playlist {
	now := s.now()
	attrs.CreatedAt = now
	if attrs.UpdatedAt.IsZero() {
		attrs.UpdatedAt = now
	}
	p := newPlaylist(s, attrs)

	s.mu.Lock()
	s.playlists = append(s.playlists, p)
	s.mu.Unlock()

	s.logger.Debug("created playlist", "title", p.title, "songs", len(p.songs))
	s.change()
	return p
}

// GetByTitle returns the first playlist with exactly this title.
func (s *Store) GetByTitle(title string) (*Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.playlists {
		if p.title == title {
			return p, true
		}
	}
	return nil, false
}

// GetOrCreateByTitle returns the playlist titled title, creating it on a miss.
func (s *Store) GetOrCreateByTitle(title string) *Playlist {
	if p, ok := s.GetByTitle(title); ok {
		return p
	}
	return s.Create(Attrs{Title: title})
}

// Remove deletes an editable playlist from the collection. The library playlist and unknown playlists are ignored.
func (s *Store) Remove(p *Playlist) bool {
	s.mu.Lock()
	idx := slices.Index(s.playlists, p)
	if idx < 0 || !s.playlists[idx].editable {
		s.mu.Unlock()
		return false
	}
	s.playlists = slices.Delete(s.playlists, idx, idx+1)
	s.mu.Unlock()

	s.logger.Debug("removed playlist", "title", p.title)
	s.change()
	return true
}

// UpdateIDs replaces oldID with newID in every playlist and notifies listeners once.
func (s *Store) UpdateIDs(oldID, newID string) int {
	s.mu.Lock()
	playlists := slices.Clone(s.playlists)
	s.mu.Unlock()

	changed := 0
	if oldID != "" && newID != "" && oldID != newID {
		for _, p := range playlists {
			if p.replaceID(oldID, newID) {
				changed++
			}
		}
	}

	s.logger.Debug("updated song ids", "old", oldID, "new", newID, "playlists", changed)
	s.change()
	return changed
}

// FetchAll returns the playlists with the library first, then by title ascending.
func (s *Store) FetchAll() []*Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Snapshot serializes the collection in [Store.FetchAll] order.
func (s *Store) Snapshot() []models.PlaylistSnapshot {
	playlists := s.FetchAll()
	out := make([]models.PlaylistSnapshot, len(playlists))
	for i, p := range playlists {
		out[i] = p.Serialize()
	}
	return out
}

// AddOnChangeListener registers fn and returns its id.
func (s *Store) AddOnChangeListener(fn Listener) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextID, fn: fn})
	return s.nextID
}

// RemoveOnChangeListener unregisters a listener. Unknown ids are ignored.
func (s *Store) RemoveOnChangeListener(id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool { return e.id == id })
}

// change calls every listener outside the lock so listeners may use the store.
func (s *Store) change() {
	s.mu.Lock()
	playlists := s.sortedLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		if l.fn != nil {
			l.fn(playlists)
		}
	}
}

func (s *Store) sortedLocked() []*Playlist {
	out := slices.Clone(s.playlists)
	slices.SortStableFunc(out, comparePlaylists)
	return out
}

func comparePlaylists(a, b *Playlist) int {
	if a.editable != b.editable {
		if !a.editable {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.title, b.title)
}

func (s *Store) intN(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.rng == nil {
		return defaultIntN(n)
	}
	return s.rng.IntN(n)
}
