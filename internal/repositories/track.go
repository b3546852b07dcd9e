package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)

const trackColumns = `id, track_id, album_id, title, album_title, mime_type, length_seconds, created_at, updated_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for the track cache.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] with a generated ID
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	query := `INSERT INTO tracks (` + trackColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		id,
		track.TrackID(),
		track.AlbumID(),
		track.Title(),
		track.Album(),
		track.MimeType(),
		track.Length(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	track.SetID(id)
	return nil
}

// Upsert inserts track, or refreshes the row that already caches the same server track.
//
// On conflict the existing row keeps its ID and created_at; track is updated to match.
func (r *TrackRepository) Upsert(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (` + trackColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			album_id = excluded.album_id,
			title = excluded.title,
			album_title = excluded.album_title,
			mime_type = CASE WHEN excluded.mime_type = '' THEN tracks.mime_type ELSE excluded.mime_type END,
			length_seconds = excluded.length_seconds,
			updated_at = excluded.updated_at
		RETURNING id
	`

	now := time.Now().UTC()
	var id string
	err := r.db.QueryRow(query,
		shared.GenerateID(),
		track.TrackID(),
		track.AlbumID(),
		track.Title(),
		track.Album(),
		track.MimeType(),
		track.Length(),
		track.CreatedAt(),
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert track %d: %w", track.TrackID(), err)
	}

	track.SetID(id)
	track.SetUpdatedAt(now)
	return nil
}

// Get retrieves a cached track by row ID
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id), id)
}

// GetByTrackID retrieves a cached track by the server's track id
func (r *TrackRepository) GetByTrackID(trackID int64) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE track_id = ?`
	return r.scan(r.db.QueryRow(query, trackID), fmt.Sprint(trackID))
}

// Update modifies an existing cached track
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE tracks
		SET album_id = ?, title = ?, album_title = ?, mime_type = ?, length_seconds = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		track.AlbumID(),
		track.Title(),
		track.Album(),
		track.MimeType(),
		track.Length(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	if err := expectOne(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())); err != nil {
		return err
	}

	track.SetUpdatedAt(now)
	return nil
}

// Delete removes a cached track by row ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id))
}

// List retrieves cached tracks matching criteria.
//
// Supported criteria: "album_id" (int64) and "mime_type" (string).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if albumID, ok := criteria["album_id"].(int64); ok && albumID > 0 {
		query += " AND album_id = ?"
		args = append(args, albumID)
	}
	if mimeType, ok := criteria["mime_type"].(string); ok && mimeType != "" {
		query += " AND mime_type = ?"
		args = append(args, mimeType)
	}

	query += " ORDER BY album_id ASC, track_id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// ListByAlbum retrieves the cached tracks of one album in track order
func (r *TrackRepository) ListByAlbum(albumID int64) ([]*models.CachedTrack, error) {
	return r.List(map[string]any{"album_id": albumID})
}

func (r *TrackRepository) scan(row scanner, key string) (*models.CachedTrack, error) {
	var (
		id        string
		trackID   int64
		albumID   int64
		title     string
		album     string
		mimeType  string
		length    int
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &trackID, &albumID, &title, &album, &mimeType, &length, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return models.RestoreCachedTrack(id, trackID, albumID, title, album, mimeType, length, createdAt, updatedAt), nil
}
