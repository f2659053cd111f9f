package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
)

// Finder is the search side of the API.
type Finder interface {
	Search(ctx context.Context, term string, progress chan<- tasks.ProgressUpdate) ([]models.Song, error)
	FetchChart(ctx context.Context, opts services.ChartOpts) ([]models.Song, error)
}

// PlaylistView is a playlist with its resolved songs.
type PlaylistView struct {
	models.PlaylistSnapshot
	Duration int           `json:"duration"`
	Entries  []models.Song `json:"entries"`
}

// LibraryAPI serves the playlist store and the search aggregator as JSON.
//
// The store is only touched while holding mu, so handlers can share it with other goroutines that take the same lock.
type LibraryAPI struct {
	mu     sync.Locker
	store  *playlist.Store
	finder Finder
	logger *log.Logger
}

// NewLibraryAPI creates the API. mu may be nil when nothing else uses the store.
func NewLibraryAPI(store *playlist.Store, finder Finder, mu sync.Locker, logger *log.Logger) *LibraryAPI {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LibraryAPI{mu: mu, store: store, finder: finder, logger: logger}
}

// Routes implements [Handler].
func (a *LibraryAPI) Routes() []string {
	return []string{
		"GET /api/playlists",
		"GET /api/playlists/{title}",
		"GET /api/playlists/{title}/next",
		"GET /api/playlists/{title}/previous",
		"GET /api/search",
		"GET /api/chart",
	}
}

func (a *LibraryAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	switch r.Pattern {
	case "GET /api/playlists":
		a.listPlaylists(w)
	case "GET /api/playlists/{title}":
		a.showPlaylist(w, title)
	case "GET /api/playlists/{title}/next":
		a.neighbour(w, r, title, (*playlist.Playlist).NextSong)
	case "GET /api/playlists/{title}/previous":
		a.neighbour(w, r, title, (*playlist.Playlist).PreviousSong)
	case "GET /api/search":
		a.search(w, r)
	case "GET /api/chart":
		a.chart(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (a *LibraryAPI) listPlaylists(w http.ResponseWriter) {
	a.mu.Lock()
	snapshots := a.store.Snapshot()
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, snapshots)
}

func (a *LibraryAPI) showPlaylist(w http.ResponseWriter, title string) {
	a.mu.Lock()
	p, ok := a.store.GetByTitle(title)
	var view PlaylistView
	if ok {
		view = PlaylistView{PlaylistSnapshot: p.Serialize(), Entries: p.Songs()}
	}
	a.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	for _, s := range view.Entries {
		view.Duration += s.Duration
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *LibraryAPI) neighbour(w http.ResponseWriter, r *http.Request, title string, fn func(*playlist.Playlist, string, bool) (models.Song, bool)) {
	shuffled, _ := strconv.ParseBool(r.URL.Query().Get("shuffle"))
	current := r.URL.Query().Get("song")

	a.mu.Lock()
	var (
		song  models.Song
		found bool
	)
	p, ok := a.store.GetByTitle(title)
	if ok {
		song, found = fn(p, current, shuffled)
	}
	a.mu.Unlock()

	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "playlist not found")
	case !found:
		writeError(w, http.StatusNotFound, "playlist is empty")
	default:
		writeJSON(w, http.StatusOK, song)
	}
}

func (a *LibraryAPI) search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}

	songs, err := a.finder.Search(r.Context(), term, nil)
	if err != nil {
		a.fail(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *LibraryAPI) chart(w http.ResponseWriter, r *http.Request) {
	opts := services.ChartOpts{Genre: r.URL.Query().Get("genre")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		opts.Limit = n
	}

	songs, err := a.finder.FetchChart(r.Context(), opts)
	if err != nil {
		a.fail(w, "chart", err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *LibraryAPI) fail(w http.ResponseWriter, op string, err error) {
	a.logger.Warn("request failed", "op", op, "error", err)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrDecode), errors.Is(err, shared.ErrMissingAPIKey):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
