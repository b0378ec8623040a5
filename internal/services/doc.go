// Package services defines the [VideoProvider] interface and implements it for the YouTube Data API v3.
//
// # YouTube Implementation
//
// [YouTubeService] calls the /search and /videos endpoints with an API key. Requests share a
// [rate.Limiter] so bulk enrichment stays inside the daily quota. Video lookups are batched
// 50 ids per request, the API maximum.
//
// # Caching
//
// [CachedProvider] wraps any provider with a Redis cache of per-video metadata. Cache
// failures are logged and the wrapped provider is used directly.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : no API key configured
//   - [shared.ErrUpstream] : transport failure or non-2xx response
//   - [shared.ErrValidation] : empty search query
package services
