// Package services talks to the remote APIs behind the search aggregator.
//
// # iTunes Catalog
//
// [ItunesService] is the primary metadata source. It wraps the public search endpoint
// (GET /search?term=..&entity=song) and the top songs RSS feed
// (GET /{country}/rss/topsongs/limit=N[/genre=G]/json). Every request carries the storefront
// country from a [CountryProvider].
//
// # YouTube
//
// [YouTubeService] is the secondary source used to find a playable video for each catalog hit.
// It calls the YouTube Data API v3 search endpoint and, when durations are requested, the videos
// endpoint for contentDetails.
//
// # Raw API access
//
// [APIService] performs unparsed GET requests and is used by the CLI for debugging.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrDecode] : response body was not the expected JSON
//   - [shared.ErrMissingAPIKey] : YouTube requests without a key
//
// No request is retried. Callers bound requests through the context.
package services
