// Package models defines the domain types shared by the playlist store, the search aggregator, and persistence.
//
// The package contains:
//   - [Song] : a resolved (or deferred) song record
//   - [SongResolver] : the lookup collaborator playlists use to materialise song ids
//   - [SortColumn] and [SortDirection] : playlist presentation state
//   - [PlaylistSnapshot] : the serialized form of a playlist used by persistence and sync
//
// Playlists store only song ids. A [SongResolver] turns those ids into [Song] values on demand;
// ids it does not know are skipped rather than reported.
package models
