// Package store implements the playlist store: account registration and login, playlist
// ownership, and song entry edits on top of a [models.Backend].
//
// Every operation validates its input before touching the backend, so a rejected call
// never partially applies. Errors wrap the sentinels in the shared package; use
// shared.Message to get the text shown to users.
package store
