package models

import (
	"fmt"
	"strings"
	"time"
)

var _ Model = (*CachedTrack)(nil)

// CachedTrack is a catalog track persisted in the local cache so that a later
// `play <track-id>` can recover its native MIME type and title.
type CachedTrack struct {
	id        string
	trackID   int64
	albumID   int64
	title     string
	album     string
	mimeType  string
	length    int
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedTrack builds a cache entry for track as listed on album.
func NewCachedTrack(track Track, albumTitle string) *CachedTrack {
	now := time.Now().UTC()
	return &CachedTrack{
		trackID:   track.ID,
		albumID:   track.AlbumID,
		title:     track.Title,
		album:     albumTitle,
		mimeType:  track.MimeType,
		length:    track.Length,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreCachedTrack rebuilds an entry read back from storage.
func RestoreCachedTrack(id string, trackID, albumID int64, title, album, mimeType string, length int, createdAt, updatedAt time.Time) *CachedTrack {
	return &CachedTrack{
		id:        id,
		trackID:   trackID,
		albumID:   albumID,
		title:     title,
		album:     album,
		mimeType:  mimeType,
		length:    length,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (t *CachedTrack) ID() string           { return t.id }
func (t *CachedTrack) TrackID() int64       { return t.trackID }
func (t *CachedTrack) AlbumID() int64       { return t.albumID }
func (t *CachedTrack) Title() string        { return t.title }
func (t *CachedTrack) Album() string        { return t.album }
func (t *CachedTrack) MimeType() string     { return t.mimeType }
func (t *CachedTrack) Length() int          { return t.length }
func (t *CachedTrack) CreatedAt() time.Time { return t.createdAt }
func (t *CachedTrack) UpdatedAt() time.Time { return t.updatedAt }

func (t *CachedTrack) SetID(id string)             { t.id = id }
func (t *CachedTrack) SetUpdatedAt(ts time.Time)   { t.updatedAt = ts }
func (t *CachedTrack) SetMimeType(mimeType string) { t.mimeType = mimeType }

// Validate checks the fields the cache relies on.
func (t *CachedTrack) Validate() error {
	if t.trackID <= 0 {
		return fmt.Errorf("track id must be positive, got %d", t.trackID)
	}
	if strings.TrimSpace(t.title) == "" {
		return fmt.Errorf("track %d has no title", t.trackID)
	}
	if t.mimeType != "" && !strings.Contains(t.mimeType, "/") {
		return fmt.Errorf("track %d has malformed mime type %q", t.trackID, t.mimeType)
	}
	return nil
}

// Ref converts the cached entry into a playable reference.
func (t *CachedTrack) Ref() TrackRef {
	return Track{ID: t.trackID, MimeType: t.mimeType}.Ref()
}
