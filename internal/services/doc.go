// Package services is the REST data-access layer for a musik server.
//
// # Clients
//
// [MusikService] wraps the typed endpoints the playback controller, the
// import monitor and the catalog commands use. [APIService] issues raw
// requests for the `api get` debugging command.
//
// # Sessions
//
// A [Session] is obtained with [MusikService.Login] and held in memory only.
// Requests that need authentication carry
//
//	Authorization: Basic base64(username:token)
//
// When no session is set, or its token has expired, the request is not sent
// and [shared.ErrSessionExpired] is returned instead. GET /api/stream/encoders,
// login and registration are the only unauthenticated calls.
//
// # Response Schemas
//
// Every response decodes into an explicit struct from the models package.
// Keys the server sends that the struct does not name are ignored; a key the
// struct names but the server omits decodes to its zero value.
//
// # Error Handling
//
// Non-2xx responses surface as [*APIError], which unwraps to
// [shared.ErrAPIRequest] and carries the status code so callers can
// translate it into a domain error:
//   - [shared.ErrSessionExpired] : no valid session, or the server answered 401
//   - [shared.ErrAlbumNotFound], [shared.ErrArtistNotFound] : 404 on detail lookups
//   - [shared.ErrAuthFailed] : login rejected
package services
