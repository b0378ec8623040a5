// Package models defines the playlist domain entities and the persistence contract shared by every storage adapter.
//
// Persisted entities:
//   - [User] : account that owns playlists, identified by username
//   - [Playlist] : named, owned, ordered collection of song entries
//   - [SongEntry] : one line item referencing a YouTube video with an optional 1-10 rating
//
// Presentation types:
//   - [VideoMetadata] : details returned by the video provider for one video id
//   - [EnrichedSongEntry] : a [SongEntry] joined with its (possibly missing) [VideoMetadata]
//
// The [Backend] interface is implemented by the SQLite and JSON file adapters in the repositories package.
package models
