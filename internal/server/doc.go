// Package server exposes the playlist store and the search aggregator over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] method patterns; [Middleware] added first runs outermost.
//
// # Handlers
//
// [LibraryAPI] serves JSON:
//
//	GET /api/playlists                        snapshots, library first
//	GET /api/playlists/{title}                one playlist with resolved songs
//	GET /api/playlists/{title}/next?song=ID   circular neighbour (shuffle=true for shuffle order)
//	GET /api/playlists/{title}/previous?song=ID
//	GET /api/search?term=...                  aggregated catalog + video search
//	GET /api/chart?genre=..&limit=..          top songs as deferred songs
//
// [CatalogProxy] forwards /itunes/... to the catalog host unchanged apart from the prefix.
//
// [Serve] runs a handler until its context is cancelled and then shuts down gracefully.
package server
