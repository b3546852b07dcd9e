// package formatter renders catalog listings and import state as plain text, Markdown or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

// Format selects an output renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts the names used by the --format flag.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown or csv)", shared.ErrInvalidArgument, s)
	}
}

// document is the intermediate form every renderer works from.
type document struct {
	title   string
	summary []string
	headers []string
	rows    [][]string
}

func (d document) render(f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return d.csv()
	case FormatMarkdown:
		return d.markdown(), nil
	case FormatText, "":
		return d.text(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

func (d document) csv() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(d.headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range d.rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func (d document) markdown() []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", d.title)
	for _, line := range d.summary {
		fmt.Fprintf(&buf, "%s\n", line)
	}
	if len(d.summary) > 0 {
		buf.WriteString("\n")
	}
	if len(d.rows) == 0 {
		return buf.Bytes()
	}

	buf.WriteString("| " + strings.Join(d.headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(d.headers)) + "\n")
	for _, row := range d.rows {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	return buf.Bytes()
}

func (d document) text() []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", d.title)
	for _, line := range d.summary {
		fmt.Fprintf(&buf, "%s\n", strings.NewReplacer("**", "").Replace(line))
	}
	if len(d.rows) == 0 {
		return buf.Bytes()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(d.headers...).
		Rows(d.rows...)
	buf.WriteString(t.String())
	buf.WriteString("\n")
	return buf.Bytes()
}

func seconds(n int) string {
	return shared.FormatDuration(time.Duration(n) * time.Second)
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

// Albums renders an album listing.
func Albums(albums []models.Album, f Format) ([]byte, error) {
	return albumsDocument("Albums", albums).render(f)
}

func albumsDocument(title string, albums []models.Album) document {
	doc := document{
		title:   title,
		summary: []string{fmt.Sprintf("**Albums**: %d", len(albums))},
		headers: []string{"ID", "Title", "Artist ID", "Year"},
	}
	for _, a := range albums {
		year := ""
		if a.Year > 0 {
			year = strconv.Itoa(a.Year)
		}
		doc.rows = append(doc.rows, []string{id(a.ID), a.Title, id(a.ArtistID), year})
	}
	return doc
}

// Album renders one album with its tracks.
func Album(album models.Album, f Format) ([]byte, error) {
	total := 0
	for _, t := range album.Tracks {
		total += t.Length
	}

	doc := document{
		title: album.Title,
		summary: []string{
			fmt.Sprintf("**Tracks**: %d", len(album.Tracks)),
			fmt.Sprintf("**Length**: %s", seconds(total)),
		},
		headers: []string{"#", "ID", "Title", "Length", "Type"},
	}
	for _, t := range album.Tracks {
		doc.rows = append(doc.rows, []string{strconv.Itoa(t.TrackNumber), id(t.ID), t.Title, seconds(t.Length), t.MimeType})
	}
	return doc.render(f)
}

// Artists renders an artist listing.
func Artists(artists []models.Artist, f Format) ([]byte, error) {
	doc := document{
		title:   "Artists",
		summary: []string{fmt.Sprintf("**Artists**: %d", len(artists))},
		headers: []string{"ID", "Name"},
	}
	for _, a := range artists {
		doc.rows = append(doc.rows, []string{id(a.ID), a.Name})
	}
	return doc.render(f)
}

// Artist renders one artist with their albums.
func Artist(artist models.Artist, f Format) ([]byte, error) {
	return albumsDocument(artist.Name, artist.Albums).render(f)
}

// ImportStatus renders an importer snapshot. zeros is the poller's count of
// consecutive idle observations, or -1 when not polling.
func ImportStatus(status models.ImportStatus, zeros int, f Format) ([]byte, error) {
	current := "none"
	if status.CurrentTask != nil && status.CurrentTask.URI != "" {
		current = status.CurrentTask.URI
	}

	doc := document{
		title: "Import Status",
		summary: []string{
			fmt.Sprintf("**Current task**: %s", current),
			fmt.Sprintf("**Outstanding tasks**: %d", status.OutstandingTasks),
		},
		headers: []string{"Level", "Message"},
	}
	if zeros >= 0 {
		doc.summary = append(doc.summary, fmt.Sprintf("**Idle polls**: %d", zeros))
	}
	for _, m := range status.Warnings {
		doc.rows = append(doc.rows, []string{"warning", m.Message})
	}
	for _, m := range status.Errors {
		doc.rows = append(doc.rows, []string{"error", m.Message})
	}
	return doc.render(f)
}

// ImportHistory renders the local import history.
func ImportHistory(records []*models.ImportRecord, f Format) ([]byte, error) {
	doc := document{
		title:   "Import History",
		summary: []string{fmt.Sprintf("**Imports**: %d", len(records))},
		headers: []string{"Submitted", "Path", "Outcome", "Finished", "Detail"},
	}
	for _, r := range records {
		finished := ""
		if !r.FinishedAt().IsZero() {
			finished = r.FinishedAt().Local().Format(time.DateTime)
		}
		doc.rows = append(doc.rows, []string{
			r.SubmittedAt().Local().Format(time.DateTime),
			r.Path(),
			string(r.Outcome()),
			finished,
			r.Detail(),
		})
	}
	return doc.render(f)
}

// WriteExport writes rendered output to path, creating or truncating it.
func WriteExport(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
