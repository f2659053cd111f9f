// Package tasks aggregates track search results from a metadata catalog and a video source.
//
// # Core Operations
//
// [Aggregator] exposes four operations:
//
//  1. [Aggregator.Search] : catalog search enriched with one video per hit
//     - Searches the catalog (50 hits by default)
//     - Looks up each hit's "title artist" on the video source, concurrently and rate limited
//     - Copies title, artist, album, track and disc numbers, duration, and the 600x600 artwork
//       onto the video id
//     - Drops hits without a video and duplicate ids, keeping catalog order
//
//  2. [Aggregator.FetchChart] : top songs feed as deferred songs with fresh ids
//
//  3. [Aggregator.FetchCover] : artwork lookup accepted only within a duration tolerance
//
//  4. [Aggregator.ResolveDeferred] : turns a deferred chart song into a playable one
//
// # Failure Policy
//
// A failed video lookup is logged and the hit is skipped. Catalog failures and context
// cancellation fail the whole call.
//
// # Progress Reporting
//
// Long-running operations accept an optional progress channel. [ProgressUpdate] values are sent
// with select/default so a slow reader never blocks the work.
//
// # Bulk Export
//
// [Aggregator.BulkExport] writes many playlists through the formatter package with a worker
// pool, optionally filling missing covers first, and records an export manifest.
package tasks
