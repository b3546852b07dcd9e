package repositories

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

// TrackCacheAdapter writes catalog listings through to a [TrackRepository].
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheAlbum stores every track of album and returns how many were written.
//
// Tracks that fail validation are skipped; any other failure stops the write.
func (a *TrackCacheAdapter) CacheAlbum(album models.Album) (int, error) {
	cached := 0
	for _, track := range album.Tracks {
		if track.AlbumID == 0 {
			track.AlbumID = album.ID
		}

		entry := models.NewCachedTrack(track, album.Title)
		if entry.Validate() != nil {
			continue
		}
		if err := a.repo.Upsert(entry); err != nil {
			return cached, fmt.Errorf("failed to cache album %d: %w", album.ID, err)
		}
		cached++
	}
	return cached, nil
}

// Ref returns a playable reference for a server track id.
//
// A cache miss is not an error: the reference simply has no MIME type and the
// playback controller negotiates a transcode instead.
func (a *TrackCacheAdapter) Ref(trackID string) (models.TrackRef, error) {
	id, err := strconv.ParseInt(trackID, 10, 64)
	if err != nil || id <= 0 {
		return models.TrackRef{}, fmt.Errorf("%w: track id %q", shared.ErrInvalidArgument, trackID)
	}

	cached, err := a.repo.GetByTrackID(id)
	switch {
	case errors.Is(err, shared.ErrTrackNotFound):
		return models.TrackRef{ID: trackID}, nil
	case err != nil:
		return models.TrackRef{}, err
	}
	return cached.Ref(), nil
}

// Album rebuilds an album listing from the cached tracks of albumID.
//
// Cached rows carry no track numbers or artist, so only ids, titles, lengths
// and MIME types are filled in.
func (a *TrackCacheAdapter) Album(albumID int64) (*models.Album, error) {
	cached, err := a.repo.ListByAlbum(albumID)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		return nil, fmt.Errorf("%w: album %d is not cached", shared.ErrAlbumNotFound, albumID)
	}

	album := &models.Album{ID: albumID, Title: cached[0].Album()}
	for _, t := range cached {
		album.Tracks = append(album.Tracks, models.Track{
			ID:       t.TrackID(),
			Title:    t.Title(),
			AlbumID:  t.AlbumID(),
			Length:   t.Length(),
			MimeType: t.MimeType(),
		})
	}
	return album, nil
}
