// Package server exposes the playlist store and per-user playback sessions as a JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] method patterns, so handlers read path parameters with PathValue and the
// metrics middleware labels requests by the matched pattern.
//
// [Middleware] added first runs outermost. Private routes are registered on a group that adds
// [SessionManager.Require]. Unmatched requests get a JSON 404 or 405.
//
// # Sessions
//
// Login issues an HS256 JWT in the ytp_session cookie. [SessionManager.Require] guards every
// route except registration, login, logout and avatar lookup.
//
// # Playback
//
// Each logged-in user owns one playback session. The browser hosts the actual embedded
// player; the server keeps the queue and reports the embed URL the page should show. Song
// edits on the playlist a user is currently playing go through that session so the queue
// stays consistent with the store.
//
// # Errors
//
// Handlers return {"error": message}. The status is derived from the sentinel the error wraps
// (validation 400, auth 401, forbidden 403, not found 404, conflict 409, upstream 502).
package server
