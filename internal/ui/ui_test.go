package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/playback"
	"github.com/desertthunder/musik/internal/tasks"
)

type stubLibrary struct {
	albums []models.Album
	album  *models.Album
	err    error
}

func (s *stubLibrary) Albums(context.Context) ([]models.Album, error) { return s.albums, s.err }
func (s *stubLibrary) Album(context.Context, int64) (*models.Album, error) {
	return s.album, s.err
}
func (s *stubLibrary) Artists(context.Context) ([]models.Artist, error) { return nil, s.err }
func (s *stubLibrary) Artist(context.Context, int64) (*models.Artist, error) {
	return nil, s.err
}

type stubCache struct {
	cached []models.Album
}

func (c *stubCache) CacheAlbum(album models.Album) (int, error) {
	c.cached = append(c.cached, album)
	return len(album.Tracks), nil
}

func testAlbum() *models.Album {
	return &models.Album{
		ID:    3,
		Title: "Kind of Blue",
		Year:  1959,
		Tracks: []models.Track{
			{ID: 10, Title: "So What", TrackNumber: 1, Length: 562, MimeType: "audio/mpeg"},
			{ID: 11, Title: "Freddie Freeloader", TrackNumber: 2, Length: 589, MimeType: "audio/ogg"},
		},
	}
}

func newTestModel(lib *stubLibrary, cache AlbumCacher) *Model {
	m := NewModel(context.Background(), Options{Library: lib, Cache: cache})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestModelFetchAlbums(t *testing.T) {
	t.Run("populates album list", func(t *testing.T) {
		lib := &stubLibrary{albums: []models.Album{{ID: 1, Title: "First"}, {ID: 2, Title: "Second"}}}
		m := newTestModel(lib, nil)

		msg := m.fetchAlbums()()
		m.Update(msg)

		if got := len(m.albumList.Items()); got != 2 {
			t.Fatalf("expected 2 albums, got %d", got)
		}
		if m.err != nil {
			t.Errorf("unexpected error: %v", m.err)
		}
	})

	t.Run("surfaces fetch errors", func(t *testing.T) {
		lib := &stubLibrary{err: errors.New("boom")}
		m := newTestModel(lib, nil)

		m.Update(m.fetchAlbums()())

		if m.err == nil {
			t.Fatal("expected error to be recorded")
		}
		if !strings.Contains(m.View(), "boom") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})
}

func TestModelFetchAlbum(t *testing.T) {
	lib := &stubLibrary{album: testAlbum()}
	cache := &stubCache{}
	m := newTestModel(lib, cache)

	m.Update(m.fetchAlbum(3)())

	if m.view != TrackListView {
		t.Errorf("expected track list view, got %v", m.view)
	}
	if got := len(m.trackList.Items()); got != 2 {
		t.Errorf("expected 2 tracks, got %d", got)
	}
	if len(cache.cached) != 1 || cache.cached[0].ID != 3 {
		t.Errorf("expected album to be cached, got %+v", cache.cached)
	}
}

func TestModelPlayerUpdates(t *testing.T) {
	m := newTestModel(&stubLibrary{}, nil)

	m.Update(playerUpdateMsg(playback.Update{Kind: playback.UpdateTrack, Track: models.TrackRef{ID: "10"}}))
	m.Update(playerUpdateMsg(playback.Update{Kind: playback.UpdateState, State: playback.Playing}))
	m.Update(playerUpdateMsg(playback.Update{
		Kind:     playback.UpdateProgress,
		Progress: playback.Progress{Elapsed: 65000, Total: 200000, Unit: playback.ProgressMillis},
	}))

	if m.playerState != playback.Playing {
		t.Errorf("expected playing, got %v", m.playerState)
	}
	view := m.View()
	for _, want := range []string{"10", "1:05 / 3:20"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}

	m.Update(playerUpdateMsg(playback.Update{Kind: playback.UpdateError, Err: errors.New("no decoder")}))
	if m.playerState != playback.Idle {
		t.Errorf("expected idle after error, got %v", m.playerState)
	}
	if !strings.Contains(m.View(), "no decoder") {
		t.Error("expected player error in view")
	}

	m.Update(playerClosedMsg())
	if m.playerState != playback.Idle {
		t.Errorf("expected idle after close, got %v", m.playerState)
	}
}

func TestModelImportView(t *testing.T) {
	m := newTestModel(&stubLibrary{}, nil)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	if m.view != ImportView || !m.pathInput.Focused() {
		t.Fatalf("expected focused import view, got view %v", m.view)
	}

	status := &models.ImportStatus{
		CurrentTask:      &models.ImportTask{URI: "/music/new"},
		OutstandingTasks: 4,
		Warnings:         []models.Message{{Message: "missing tags"}},
	}
	m.Update(importUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Polled, Message: "4 outstanding", Data: status}))

	view := m.View()
	for _, want := range []string{"polled", "/music/new", "outstanding: 4", "missing tags"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != AlbumListView || m.pathInput.Focused() {
		t.Errorf("expected album list after esc, got %v", m.view)
	}
}

func TestModelWithoutPlayer(t *testing.T) {
	m := newTestModel(&stubLibrary{}, nil)

	for _, r := range []rune{' ', 's', 'n', 'z', 'r'} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		if cmd != nil {
			t.Errorf("key %q: expected no command without a player", r)
		}
	}
	if m.shuffle {
		t.Error("shuffle should not toggle without a player")
	}
}
