// Package models defines the wire schemas and domain entities for the musik client.
//
// The package contains two categories of types:
//
// 1. Wire schemas: one explicit struct per REST response shape
//   - [ImportStatus] : importer snapshot with [ImportTask] and [Message] lists
//   - [RandomTrack] : result of the random-track resolver
//   - [Album], [Artist], [Track] : catalog entries
//   - [UserAccount] : account details returned when a session is issued
//
// 2. Domain values
//   - [TrackRef] : what the playback controller is asked to play
//   - [CachedTrack] : catalog track persisted in the local sqlite cache
//
// Unknown JSON keys are ignored by every wire schema: the structs list the
// fields this client reads and nothing else is inspected.
//
// Persistent entities implement [Model]; [Repository] is the CRUD contract
// the repositories package fulfils.
package models
