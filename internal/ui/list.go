package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

var (
	_ list.Item = albumItem{}
	_ list.Item = trackItem{}
)

// albumItem wraps [models.Album] to implement [list.Item].
type albumItem struct {
	album models.Album
}

func (i albumItem) FilterValue() string { return i.album.Title }
func (i albumItem) Title() string       { return i.album.Title }
func (i albumItem) Description() string {
	if i.album.Year > 0 {
		return fmt.Sprintf("#%d • %d", i.album.ID, i.album.Year)
	}
	return fmt.Sprintf("#%d", i.album.ID)
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string {
	return fmt.Sprintf("%d. %s", i.track.TrackNumber, i.track.Title)
}
func (i trackItem) Description() string {
	desc := shared.FormatDuration(time.Duration(i.track.Length) * time.Second)
	if i.track.MimeType != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.MimeType)
	}
	return desc
}
