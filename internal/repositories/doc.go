// Package repositories implements the SQLite cache kept next to the musik client.
//
// Key Implementations:
//   - [TrackRepository] : tracks seen while browsing albums, keyed by the server's track id
//   - [TrackCacheAdapter] : writes album listings through to the track cache and
//     turns a bare track id back into a reference with a MIME type
//   - [ImportRepository] : history of import submissions and how monitoring ended
//
// Rows are identified by generated UUIDs. The server's own ids are kept in
// separate columns with UNIQUE constraints so re-caching an album updates rows in place.
package repositories
