// Package repositories implements the two persistence adapters behind [models.Backend].
//
// # SQLite
//
// [SQLBackend] composes one repository per table:
//   - [UserRepository] : accounts, unique username and email
//   - [PlaylistRepository] : playlist rows keyed by owner
//   - [SongRepository] : ordered playlist entries with ratings
//
// Deleting a user or playlist relies on ON DELETE CASCADE foreign keys, so the connection
// must have foreign keys enabled (see shared.NewDatabase). Sequence numbers from [NextSequence]
// keep list results in insertion order independent of UUIDs.
//
// # JSON file
//
// [FileBackend] keeps users and playlists in a single document, rewritten atomically
// (temp file and rename) on every mutation.
//
// Both adapters report absent entities with shared.ErrNotFound and uniqueness violations with
// shared.ErrConflict, carrying the same human readable messages.
package repositories
