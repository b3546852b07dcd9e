package models

import (
	"path"
	"strconv"
)

// TrackRef identifies something the playback controller can be asked to play.
//
// MimeType is empty when the native type is unknown. StreamURI is set when the
// reference was produced by the random-track resolver and is already playable.
type TrackRef struct {
	ID        string
	MimeType  string
	StreamURI string
}

// Resolved reports whether the reference already carries a stream URI.
func (r TrackRef) Resolved() bool {
	return r.StreamURI != ""
}

// String returns a short description suitable for log lines.
func (r TrackRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return path.Base(r.StreamURI)
}

// RandomTrack is the response of GET /api/tracks/random.
type RandomTrack struct {
	StreamURI string `json:"stream_uri"`
}

// Ref converts the resolver response into a playable reference.
func (t RandomTrack) Ref() TrackRef {
	return TrackRef{StreamURI: t.StreamURI}
}

// Track is a catalog track as returned inside album details.
type Track struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	TrackNumber int    `json:"tracknumber"`
	Length      int    `json:"length"` // Length in seconds
	AlbumID     int64  `json:"album_id"`
	ArtistID    int64  `json:"artist_id"`
	MimeType    string `json:"mime_type,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// Ref converts a catalog track into a playable reference.
func (t Track) Ref() TrackRef {
	return TrackRef{ID: strconv.FormatInt(t.ID, 10), MimeType: t.MimeType}
}

// Album is a catalog album. Tracks is only populated by the album detail endpoint.
type Album struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	TitleSort string  `json:"title_sort,omitempty"`
	ArtistID  int64   `json:"artist_id"`
	Year      int     `json:"year,omitempty"`
	Tracks    []Track `json:"tracks,omitempty"`
}

// Artist is a catalog artist. Albums is only populated by the artist detail endpoint.
type Artist struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	NameSort string  `json:"name_sort,omitempty"`
	Albums   []Album `json:"albums,omitempty"`
}
