// Package tasks runs long playlist jobs with non-blocking progress reporting.
//
// # Operations
//
// [PlaylistEngine] works against the playlist store and a video metadata source:
//
//  1. [PlaylistEngine.Export] : Join one playlist with video details
//     - A failed lookup marks the export degraded instead of failing it
//
//  2. [PlaylistEngine.BulkExport] : Export many playlists to disk
//     - Rate-limited producer feeding a bounded worker pool
//     - Partial failures are recorded per playlist
//     - Writes export_manifest.json summarising the run
//
//  3. [PlaylistEngine.WarmCache] : Fetch details for every video a user has saved
//     - With a cached provider this fills Redis ahead of browsing
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
