package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
)

// PlaylistRepository persists the playlist collection.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// SaveAll replaces the stored collection with snapshots, keeping their order.
func (r *PlaylistRepository) SaveAll(ctx context.Context, snapshots []models.PlaylistSnapshot) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// playlist_songs rows go with their playlist through ON DELETE CASCADE.
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlists`); err != nil {
			return fmt.Errorf("failed to clear playlists: %w", err)
		}

		insertPlaylist, err := tx.PrepareContext(ctx, `
			INSERT INTO playlists (position, title, editable, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare playlist insert: %w", err)
		}
		defer insertPlaylist.Close()

		insertSong, err := tx.PrepareContext(ctx, `
			INSERT INTO playlist_songs (playlist_id, position, song_id)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare playlist song insert: %w", err)
		}
		defer insertSong.Close()

		for pos, snap := range snapshots {
			res, err := insertPlaylist.ExecContext(ctx, pos, snap.Title, boolToInt(snap.Editable), snap.CreatedAt, snap.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert playlist %q: %w", snap.Title, err)
			}

			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get playlist id: %w", err)
			}

			for i, songID := range snap.Songs {
				if _, err := insertSong.ExecContext(ctx, id, i, songID); err != nil {
					return fmt.Errorf("failed to insert song %s into %q: %w", songID, snap.Title, err)
				}
			}
		}
		return nil
	})
}

// List returns the stored collection in saved order.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.PlaylistSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, editable, created_at, updated_at
		FROM playlists
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}

	var (
		ids       []int64
		snapshots []models.PlaylistSnapshot
	)
	for rows.Next() {
		var (
			id       int64
			editable int
			snap     models.PlaylistSnapshot
		)
		if err := rows.Scan(&id, &snap.Title, &editable, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		snap.Editable = editable != 0
		snap.Songs = []string{}
		ids = append(ids, id)
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// Rows must be closed before the next query when the pool holds a single connection.
	for i, id := range ids {
		songs, err := r.songIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		snapshots[i].Songs = songs
	}
	return snapshots, nil
}

func (r *PlaylistRepository) songIDs(ctx context.Context, playlistID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT song_id FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist song: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored playlists.
func (r *PlaylistRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlists`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count playlists: %w", err)
	}
	return n, nil
}
