package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleAlbum() models.Album {
	return models.Album{
		ID:    3,
		Title: "Kind of Blue",
		Tracks: []models.Track{
			{ID: 11, Title: "So What", TrackNumber: 1, Length: 562, MimeType: "audio/flac"},
			{ID: 12, Title: "Freddie Freeloader", TrackNumber: 2, Length: 586, MimeType: "audio/flac"},
			{ID: 13, Title: "Blue in Green", TrackNumber: 3, Length: 337},
		},
	}
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(models.Track{ID: 1, AlbumID: 2, Title: "Intro", MimeType: "audio/mpeg"}, "Album")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if track.ID() == "" {
			t.Error("track ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(models.Track{ID: 1, AlbumID: 2, Title: "Intro", MimeType: "audio/mpeg", Length: 61}, "Album")
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.TrackID() != 1 || retrieved.Title() != "Intro" || retrieved.MimeType() != "audio/mpeg" {
			t.Errorf("unexpected track %+v", retrieved)
		}
		if retrieved.Length() != 61 || retrieved.Album() != "Album" || retrieved.AlbumID() != 2 {
			t.Errorf("unexpected track details %+v", retrieved)
		}

		byTrackID, err := repo.GetByTrackID(1)
		if err != nil {
			t.Fatalf("failed to get track by track id: %v", err)
		}
		if byTrackID.ID() != track.ID() {
			t.Errorf("expected ID %s, got %s", track.ID(), byTrackID.ID())
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		first := models.NewCachedTrack(models.Track{ID: 5, AlbumID: 1, Title: "Old Title", MimeType: "audio/flac"}, "A")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		second := models.NewCachedTrack(models.Track{ID: 5, AlbumID: 1, Title: "New Title"}, "A")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}
		if second.ID() != first.ID() {
			t.Errorf("expected upsert to keep ID %s, got %s", first.ID(), second.ID())
		}

		got, err := repo.GetByTrackID(5)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Title() != "New Title" {
			t.Errorf("expected title to be refreshed, got %s", got.Title())
		}
		if got.MimeType() != "audio/flac" {
			t.Errorf("an empty mime type must not erase a known one, got %q", got.MimeType())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(models.Track{ID: 1, Title: "Intro"}, "Album")
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		track.SetMimeType("audio/ogg")
		if err := repo.Update(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		got, _ := repo.Get(track.ID())
		if got.MimeType() != "audio/ogg" {
			t.Errorf("expected updated mime type, got %q", got.MimeType())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(models.Track{ID: 1, Title: "Intro"}, "Album")
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}
		if _, err := repo.Get(track.ID()); err == nil {
			t.Error("expected deleted track to be gone")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		for _, tr := range []models.Track{
			{ID: 3, AlbumID: 2, Title: "c", MimeType: "audio/flac"},
			{ID: 1, AlbumID: 1, Title: "a", MimeType: "audio/mpeg"},
			{ID: 2, AlbumID: 2, Title: "b", MimeType: "audio/flac"},
		} {
			if err := repo.Create(models.NewCachedTrack(tr, "")); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(all) != 3 || all[0].TrackID() != 1 {
			t.Errorf("unexpected listing order")
		}

		album, _ := repo.ListByAlbum(2)
		if len(album) != 2 || album[0].TrackID() != 2 || album[1].TrackID() != 3 {
			t.Errorf("expected album 2 tracks in order, got %d", len(album))
		}

		flac, _ := repo.List(map[string]any{"mime_type": "audio/flac"})
		if len(flac) != 2 {
			t.Errorf("expected 2 flac tracks, got %d", len(flac))
		}
	})
}

func TestTrackCacheAdapter(t *testing.T) {
	t.Run("CacheAlbum", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		cache := NewTrackCacheAdapter(repo)

		album := sampleAlbum()
		album.Tracks = append(album.Tracks, models.Track{ID: 0, Title: "bonus"})

		n, err := cache.CacheAlbum(album)
		if err != nil {
			t.Fatalf("failed to cache album: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 cached tracks, got %d", n)
		}

		tracks, _ := repo.ListByAlbum(3)
		if len(tracks) != 3 || tracks[0].Album() != "Kind of Blue" {
			t.Errorf("expected album tracks to carry the album id and title")
		}

		if n, _ := cache.CacheAlbum(album); n != 3 {
			t.Errorf("re-caching should update in place, got %d", n)
		}
		tracks, _ = repo.List(nil)
		if len(tracks) != 3 {
			t.Errorf("expected no duplicate rows, got %d", len(tracks))
		}
	})

	t.Run("Ref", func(t *testing.T) {
		cache := NewTrackCacheAdapter(NewTrackRepository(setupTestDB(t)))
		if _, err := cache.CacheAlbum(sampleAlbum()); err != nil {
			t.Fatalf("failed to cache album: %v", err)
		}

		tests := []struct {
			id   string
			want models.TrackRef
		}{
			{"11", models.TrackRef{ID: "11", MimeType: "audio/flac"}},
			{"13", models.TrackRef{ID: "13"}},
			{"99", models.TrackRef{ID: "99"}},
		}
		for _, tt := range tests {
			got, err := cache.Ref(tt.id)
			if err != nil {
				t.Fatalf("Ref(%s) error = %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("Ref(%s) = %+v, want %+v", tt.id, got, tt.want)
			}
		}
	})
}

func TestTrackCacheAdapterAlbum(t *testing.T) {
	t.Run("rebuilds cached album", func(t *testing.T) {
		cache := NewTrackCacheAdapter(NewTrackRepository(setupTestDB(t)))
		if _, err := cache.CacheAlbum(sampleAlbum()); err != nil {
			t.Fatalf("failed to cache album: %v", err)
		}

		album, err := cache.Album(3)
		if err != nil {
			t.Fatalf("Album(3) error = %v", err)
		}
		if album.ID != 3 || album.Title != "Kind of Blue" {
			t.Errorf("unexpected album %+v", album)
		}
		if len(album.Tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(album.Tracks))
		}
		if got := album.Tracks[0]; got.ID != 11 || got.MimeType != "audio/flac" || got.AlbumID != 3 {
			t.Errorf("unexpected first track %+v", got)
		}
	})

	t.Run("missing album", func(t *testing.T) {
		cache := NewTrackCacheAdapter(NewTrackRepository(setupTestDB(t)))

		if _, err := cache.Album(42); !errors.Is(err, shared.ErrAlbumNotFound) {
			t.Errorf("expected ErrAlbumNotFound, got %v", err)
		}
	})
}

func TestImportRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		record := models.NewImportRecord("/music/new")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create import: %v", err)
		}
		if record.ID() == "" {
			t.Fatal("import ID should be set after creation")
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get import: %v", err)
		}
		if got.Path() != "/music/new" || got.Outcome() != models.OutcomePending {
			t.Errorf("unexpected record %+v", got)
		}
		if !got.FinishedAt().IsZero() {
			t.Errorf("pending record should have no finish time, got %v", got.FinishedAt())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		record := models.NewImportRecord("/music/new")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create import: %v", err)
		}

		at := time.Now().UTC().Truncate(time.Second)
		record.Finish(models.OutcomeFinished, "3 warnings", at)
		if err := repo.Update(record); err != nil {
			t.Fatalf("failed to update import: %v", err)
		}

		got, _ := repo.Get(record.ID())
		if got.Outcome() != models.OutcomeFinished || got.Detail() != "3 warnings" {
			t.Errorf("unexpected record %+v", got)
		}
		if !got.FinishedAt().Equal(at) {
			t.Errorf("expected finish time %v, got %v", at, got.FinishedAt())
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

		for i, outcome := range []models.ImportOutcome{models.OutcomeFinished, models.OutcomeFailed, models.OutcomeFinished} {
			record := models.RestoreImportRecord("", "/music/"+string(rune('a'+i)), outcome, "", base.Add(time.Duration(i)*time.Minute), time.Time{})
			if err := repo.Create(record); err != nil {
				t.Fatalf("failed to create import: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list imports: %v", err)
		}
		if len(all) != 3 || all[0].Path() != "/music/c" {
			t.Errorf("expected newest first, got %d records", len(all))
		}

		finished, _ := repo.List(map[string]any{"outcome": models.OutcomeFinished})
		if len(finished) != 2 {
			t.Errorf("expected 2 finished imports, got %d", len(finished))
		}

		recent, _ := repo.Recent(1)
		if len(recent) != 1 || recent[0].Path() != "/music/c" {
			t.Errorf("expected only the newest import")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		record := models.NewImportRecord("/music")
		repo.Create(record)

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("failed to delete import: %v", err)
		}
		if _, err := repo.Get(record.ID()); err == nil {
			t.Error("expected deleted import to be gone")
		}
	})
}
