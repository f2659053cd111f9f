package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

const songColumns = `id, title, artist, album, cover, duration, track_number, disc_number, source, deferred`

// SongRepository persists [models.Song] records.
//
// Songs are keyed by their playable id, so saving a song that already exists refreshes its metadata.
type SongRepository struct {
	db     *sql.DB
	now    func() time.Time
	logger *log.Logger
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB, logger *log.Logger) *SongRepository {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &SongRepository{db: db, now: time.Now, logger: logger}
}

// Save inserts song or updates the existing record with the same id.
func (r *SongRepository) Save(ctx context.Context, song models.Song) error {
	return r.save(ctx, r.db, song)
}

// SaveAll upserts songs in one transaction.
func (r *SongRepository) SaveAll(ctx context.Context, songs []models.Song) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, s := range songs {
			if err := r.save(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SongRepository) save(ctx context.Context, ex execer, song models.Song) error {
	if song.ID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}

	now := r.now().UnixMilli()
	query := `
		INSERT INTO songs (` + songColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			cover = excluded.cover,
			duration = excluded.duration,
			track_number = excluded.track_number,
			disc_number = excluded.disc_number,
			source = excluded.source,
			deferred = excluded.deferred,
			updated_at = excluded.updated_at
	`

	_, err := ex.ExecContext(ctx, query,
		song.ID,
		song.Title,
		song.Artist,
		song.Album,
		song.Cover,
		song.Duration,
		song.TrackNumber,
		song.DiscNumber,
		song.Source,
		boolToInt(song.Deferred),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save song: %w", err)
	}
	return nil
}

// Get retrieves a song by id. Missing songs are [shared.ErrSongNotFound].
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id)

	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// FindByID implements [models.SongResolver]. Query failures are logged and reported as not found.
func (r *SongRepository) FindByID(id string) (models.Song, bool) {
	song, err := r.Get(context.Background(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrSongNotFound) {
			r.logger.Error("song lookup failed", "id", id, "error", err)
		}
		return models.Song{}, false
	}
	return *song, true
}

// List returns every song in insertion order.
func (r *SongRepository) List(ctx context.Context) ([]models.Song, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+songColumns+` FROM songs ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// UpdateID renames a song and rewrites playlist memberships that reference it.
//
// When newID already exists the old record is dropped and memberships point at the existing one.
func (r *SongRepository) UpdateID(ctx context.Context, oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	if newID == "" {
		return fmt.Errorf("%w: new song id is required", shared.ErrInvalidInput)
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs WHERE id = ?`, newID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check song: %w", err)
		}

		var (
			res sql.Result
			err error
		)
		if exists > 0 {
			res, err = tx.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, oldID)
		} else {
			res, err = tx.ExecContext(ctx, `UPDATE songs SET id = ?, updated_at = ? WHERE id = ?`, newID, r.now().UnixMilli(), oldID)
		}
		if err != nil {
			return fmt.Errorf("failed to update song id: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", shared.ErrSongNotFound, oldID)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE playlist_songs SET song_id = ? WHERE song_id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("failed to update playlist songs: %w", err)
		}
		return nil
	})
}

// Delete removes a song record. Playlist memberships are left alone; unknown ids resolve to nothing.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (models.Song, error) {
	var (
		song     models.Song
		deferred int
	)

	err := row.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Album,
		&song.Cover,
		&song.Duration,
		&song.TrackNumber,
		&song.DiscNumber,
		&song.Source,
		&deferred,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return song, err
	}
	if err != nil {
		return song, fmt.Errorf("failed to scan song: %w", err)
	}

	song.Deferred = deferred != 0
	return song, nil
}
