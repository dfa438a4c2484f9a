// Package server exposes the catalog as a JSON API over [http.ServeMux].
//
// # Routing
//
// [BasicRouter] registers "METHOD /path" patterns, so the mux itself answers 405 for known paths
// hit with the wrong method. Router-wide [Middleware] runs outermost in the order it was added:
// [RequestLogger] then [Recoverer]. Route middleware such as [RequireAuth] and [RateLimit] runs
// inside that stack.
//
// # Authentication
//
// Clients log in at /api/login and send the returned JWT as a bearer token. [RequireAuth] puts the
// user ID in the request context; handlers read it with [UserID]. Login attempts are throttled per
// client IP with token buckets from golang.org/x/time/rate.
//
// # Errors
//
// Every error body is {"error": "..."}. Sentinels from the shared package map to statuses:
// validation to 400, credentials and tokens to 401, missing rows to 404, constraint violations to
// 409 and rate limits to 429. Playlists owned by another user are reported as 404 so their
// existence does not leak. Anything else is a 500 with the details kept in the log.
package server
