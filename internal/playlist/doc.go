// Package playlist manages the in-memory collection of playlists: membership, ordering, sorting,
// shuffling, and change notification.
//
// # Store
//
// A [Store] owns the collection and the listener list. It is an explicit value: create one with
// [NewStore], seed it with [Store.Initialise], and tear it down with [Store.Close]. Every mutating
// operation (on the store or on one of its playlists) invokes the registered listeners
// synchronously, in registration order, with the collection as returned by [Store.FetchAll].
//
// # Playlists
//
// A [Playlist] stores song ids only. Resolved songs are produced lazily through the store's
// [models.SongResolver] and memoized until the next membership, order, or sort change. The
// shuffle snapshot is a separate memoized permutation, regenerated when membership changes or
// when its length no longer matches the resolved songs.
//
// Invalid input never panics or errors: missing songs, missing playlists, and out-of-range
// indices are no-ops, reported through boolean results where useful.
//
// The collection and listener list are safe for concurrent use. An individual playlist is not;
// it belongs to the goroutine driving it.
package playlist
