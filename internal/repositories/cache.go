package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/jukebox/internal/models"
)

// SongCache is a write-through [models.SongResolver] backed by a [SongRepository].
//
// Lookups hit memory first and fall back to the database; misses are not cached so a later save is seen.
type SongCache struct {
	repo *SongRepository

	mu    sync.RWMutex
	index models.SongIndex
}

// NewSongCache creates an empty cache over repo.
func NewSongCache(repo *SongRepository) *SongCache {
	return &SongCache{repo: repo, index: models.SongIndex{}}
}

// Warm loads every stored song into memory.
func (c *SongCache) Warm(ctx context.Context) (int, error) {
	songs, err := c.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to warm song cache: %w", err)
	}

	c.mu.Lock()
	c.index.Add(songs...)
	c.mu.Unlock()
	return len(songs), nil
}

// FindByID implements [models.SongResolver].
func (c *SongCache) FindByID(id string) (models.Song, bool) {
	c.mu.RLock()
	song, ok := c.index.FindByID(id)
	c.mu.RUnlock()
	if ok {
		return song, true
	}

	song, ok = c.repo.FindByID(id)
	if ok {
		c.mu.Lock()
		c.index.Add(song)
		c.mu.Unlock()
	}
	return song, ok
}

// Save persists songs and updates memory once the write succeeds.
func (c *SongCache) Save(ctx context.Context, songs ...models.Song) error {
	if err := c.repo.SaveAll(ctx, songs); err != nil {
		return err
	}

	c.mu.Lock()
	c.index.Add(songs...)
	c.mu.Unlock()
	return nil
}

// UpdateID renames a song in the database. Both ids are evicted; the next lookup reloads newID.
func (c *SongCache) UpdateID(ctx context.Context, oldID, newID string) error {
	if err := c.repo.UpdateID(ctx, oldID, newID); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.index, oldID)
	delete(c.index, newID)
	c.mu.Unlock()
	return nil
}

// Len reports the number of cached songs.
func (c *SongCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}
