// Package repositories implements SQLite persistence for songs and playlists.
//
// Key Implementations:
//   - [SongRepository] : song records keyed by their playable id, upserted on every save
//   - [PlaylistRepository] : the playlist collection, replaced wholesale on save
//   - [SongCache] : a write-through, in-memory [models.SongResolver] in front of [SongRepository]
//
// Timestamps are stored as unix milliseconds. Playlist membership lives in playlist_songs, where
// position is playback order. Playlists are saved as a full snapshot inside one transaction so a
// reader never sees a half-written collection.
package repositories
