package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/broadcast"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/redis/go-redis/v9"
)

// library is the persisted playlist store: SQLite-backed songs and playlists, saved on every change.
type library struct {
	db        *sql.DB
	repo      *repositories.SongRepository
	songs     *repositories.SongCache
	playlists *repositories.PlaylistRepository
	store     *playlist.Store
	rdb       *redis.Client
	publisher *broadcast.Publisher
	instance  string
	logger    *log.Logger

	mu      sync.Mutex
	saveErr error
}

// openLibrary opens the configured database and loads the store from it.
func openLibrary(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*library, error) {
	db, err := shared.OpenConfigured(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := repositories.NewSongRepository(db, logger)
	lib := &library{
		db:        db,
		repo:      repo,
		songs:     repositories.NewSongCache(repo),
		playlists: repositories.NewPlaylistRepository(db),
		instance:  broadcast.NewInstanceID(),
		logger:    logger,
	}

	if _, err := lib.songs.Warm(ctx); err != nil {
		db.Close()
		return nil, err
	}

	snapshots, err := lib.playlists.List(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	lib.store = playlist.NewStore(lib.songs, playlist.WithLogger(shared.WithLogger(logger, "component", "store")))
	lib.store.Initialise(snapshots)
	lib.store.AddOnChangeListener(lib.persist)

	if addr := cfg.Sync.RedisAddr; addr != "" {
		lib.rdb = redis.NewClient(&redis.Options{Addr: addr})
		lib.publisher = broadcast.NewPublisher(lib.rdb, syncChannel(cfg), lib.instance, lib.songs, logger)
		lib.store.AddOnChangeListener(lib.publisher.Listener())
	}

	lib.store.GetOrCreateByTitle(models.LibraryTitle)
	if err := lib.refresh(ctx); err != nil {
		lib.Close()
		return nil, err
	}

	logger.Debug("library opened", "path", cfg.Database.Path, "playlists", len(snapshots), "songs", lib.songs.Len())
	return lib, nil
}

func syncChannel(cfg *shared.Config) string {
	if cfg.Sync.Channel == "" {
		return broadcast.DefaultChannel
	}
	return cfg.Sync.Channel
}

// persist is the store listener that writes every playlist back to the database.
func (l *library) persist(playlists []*playlist.Playlist) {
	snapshots := make([]models.PlaylistSnapshot, len(playlists))
	for i, p := range playlists {
		snapshots[i] = p.Serialize()
	}

	err := l.playlists.SaveAll(context.Background(), snapshots)
	if err != nil {
		l.logger.Error("failed to save playlists", "error", err)
	}

	l.mu.Lock()
	l.saveErr = err
	l.mu.Unlock()
}

// Err returns the result of the most recent save.
func (l *library) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveErr
}

// refresh installs every stored song into the library playlist.
func (l *library) refresh(ctx context.Context) error {
	lib, ok := l.store.GetByTitle(models.LibraryTitle)
	if !ok {
		return nil
	}

	songs, err := l.repo.List(ctx)
	if err != nil {
		return err
	}
	lib.SetSongs(songs)
	return nil
}

// editable finds the playlist titled title, failing for unknown and read-only playlists.
func (l *library) editable(title string) (*playlist.Playlist, error) {
	p, err := l.playlist(title)
	if err != nil {
		return nil, err
	}
	if !p.Editable() {
		return nil, fmt.Errorf("%w: %s", shared.ErrReadOnlyPlaylist, title)
	}
	return p, nil
}

func (l *library) playlist(title string) (*playlist.Playlist, error) {
	p, ok := l.store.GetByTitle(title)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, title)
	}
	return p, nil
}

// Save stores songs and refreshes the library playlist.
func (l *library) Save(ctx context.Context, songs ...models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	if err := l.songs.Save(ctx, songs...); err != nil {
		return err
	}
	return l.refresh(ctx)
}

// Replace swaps a stored song for its resolved form and patches every playlist that held it.
func (l *library) Replace(ctx context.Context, old, resolved models.Song) error {
	if err := l.songs.Save(ctx, resolved); err != nil {
		return err
	}
	if old.ID != resolved.ID {
		if err := l.songs.UpdateID(ctx, old.ID, resolved.ID); err != nil {
			return err
		}
		l.store.UpdateIDs(old.ID, resolved.ID)
	}
	return l.refresh(ctx)
}

// Apply replaces the store contents with playlists received from another instance.
func (l *library) Apply(ctx context.Context, msg broadcast.Message) error {
	if err := l.songs.Save(ctx, msg.Songs...); err != nil {
		return err
	}
	if err := l.playlists.SaveAll(ctx, msg.Playlists); err != nil {
		return err
	}
	l.store.Initialise(msg.Playlists)
	return l.refresh(ctx)
}

func (l *library) Close() error {
	l.store.Close()

	var errs []error
	if l.rdb != nil {
		errs = append(errs, l.rdb.Close())
	}
	errs = append(errs, l.db.Close())
	return errors.Join(errs...)
}
