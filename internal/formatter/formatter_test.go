package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
	th "github.com/desertthunder/musik/internal/testing"
)

func sampleAlbum() models.Album {
	return models.Album{
		ID:       3,
		Title:    "Kind of Blue",
		ArtistID: 1,
		Year:     1959,
		Tracks: []models.Track{
			{ID: 11, Title: "So What", TrackNumber: 1, Length: 562, MimeType: "audio/flac"},
			{ID: 12, Title: "Freddie | Freeloader", TrackNumber: 2, Length: 586},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatText,
		"TEXT":     FormatText,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		" csv ":    FormatCSV,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("json"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAlbum(t *testing.T) {
	album := sampleAlbum()

	t.Run("CSV", func(t *testing.T) {
		data, err := Album(album, FormatCSV)
		if err != nil {
			t.Fatalf("Album() error = %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "#,ID,Title,Length,Type" {
			t.Errorf("unexpected CSV header %q", lines[0])
		}
		if lines[1] != "1,11,So What,9:22,audio/flac" {
			t.Errorf("unexpected CSV row %q", lines[1])
		}
		if len(lines) != 3 {
			t.Errorf("expected 3 lines, got %d", len(lines))
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := Album(album, FormatMarkdown)
		if err != nil {
			t.Fatalf("Album() error = %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Kind of Blue",
			"**Tracks**: 2",
			"**Length**: 19:08",
			"| # | ID | Title | Length | Type |",
			`Freddie \| Freeloader`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := Album(album, FormatText)
		if err != nil {
			t.Fatalf("Album() error = %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Kind of Blue\n") {
			t.Errorf("text should start with the album title, got:\n%s", output)
		}
		if !strings.Contains(output, "Tracks: 2") || strings.Contains(output, "**") {
			t.Errorf("text summary should be plain, got:\n%s", output)
		}
		if !strings.Contains(output, "So What") {
			t.Errorf("text missing track title")
		}
	})
}

func TestCatalogListings(t *testing.T) {
	albums := []models.Album{sampleAlbum(), {ID: 4, Title: "Sketches of Spain", ArtistID: 1}}

	data, err := Albums(albums, FormatCSV)
	if err != nil {
		t.Fatalf("Albums() error = %v", err)
	}
	if !strings.Contains(string(data), "3,Kind of Blue,1,1959") || !strings.Contains(string(data), "4,Sketches of Spain,1,\n") {
		t.Errorf("unexpected albums CSV:\n%s", data)
	}

	data, err = Artists([]models.Artist{{ID: 1, Name: "Miles Davis"}}, FormatMarkdown)
	if err != nil {
		t.Fatalf("Artists() error = %v", err)
	}
	if !strings.Contains(string(data), "| 1 | Miles Davis |") {
		t.Errorf("unexpected artists Markdown:\n%s", data)
	}

	data, err = Artist(models.Artist{ID: 1, Name: "Miles Davis", Albums: albums}, FormatMarkdown)
	if err != nil {
		t.Fatalf("Artist() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# Miles Davis\n") || !strings.Contains(string(data), "**Albums**: 2") {
		t.Errorf("unexpected artist Markdown:\n%s", data)
	}

	data, _ = Albums(nil, FormatMarkdown)
	if strings.Contains(string(data), "|") {
		t.Errorf("empty listing should have no table, got:\n%s", data)
	}
}

func TestImportStatus(t *testing.T) {
	status := models.ImportStatus{
		CurrentTask:      &models.ImportTask{URI: "/music/new/01.flac"},
		OutstandingTasks: 4,
		Warnings:         []models.Message{{Message: "missing cover"}},
		Errors:           []models.Message{{Message: "bad tag"}},
	}

	data, err := ImportStatus(status, 2, FormatMarkdown)
	if err != nil {
		t.Fatalf("ImportStatus() error = %v", err)
	}
	output := string(data)
	for _, want := range []string{
		"**Current task**: /music/new/01.flac",
		"**Outstanding tasks**: 4",
		"**Idle polls**: 2",
		"| warning | missing cover |",
		"| error | bad tag |",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Markdown missing %q, got:\n%s", want, output)
		}
	}

	data, _ = ImportStatus(models.ImportStatus{}, -1, FormatText)
	if !strings.Contains(string(data), "Current task: none") || strings.Contains(string(data), "Idle polls") {
		t.Errorf("unexpected idle status:\n%s", data)
	}
}

func TestImportHistory(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	records := []*models.ImportRecord{
		models.RestoreImportRecord("a", "/music/a", models.OutcomeFinished, "", at, at.Add(time.Minute)),
		models.RestoreImportRecord("b", "/music/b", models.OutcomePending, "", at, time.Time{}),
	}

	data, err := ImportHistory(records, FormatCSV)
	if err != nil {
		t.Fatalf("ImportHistory() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[1] != "2026-03-01 10:00:00,/music/a,finished,2026-03-01 10:01:00," {
		t.Errorf("unexpected row %q", lines[1])
	}
	if lines[2] != "2026-03-01 10:00:00,/music/b,pending,," {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "albums.csv")

	if err := WriteExport(path, []byte("ID\n")); err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	th.AssertFileExists(t, path)
	if got := th.MustReadFile(t, path); got != "ID\n" {
		t.Errorf("unexpected file content %q", got)
	}

	if err := WriteExport("", nil); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}
