package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/playback"
	"github.com/desertthunder/musik/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAlbumsFetched MsgKind = iota
	MsgAlbumFetched
	MsgPlayerUpdate
	MsgPlayerClosed
	MsgImportUpdate
	MsgActionFailed
)

type albumsResult struct {
	albums []models.Album
	err    error
}

type albumResult struct {
	album *models.Album
	err   error
}

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(albums []models.Album, err error) Msg {
	return Msg{kind: MsgAlbumsFetched, data: albumsResult{albums, err}}
}

// albumFetchedMsg is the constructor for [MsgAlbumFetched]
func albumFetchedMsg(album *models.Album, err error) Msg {
	return Msg{kind: MsgAlbumFetched, data: albumResult{album, err}}
}

// playerUpdateMsg is the constructor for [MsgPlayerUpdate]
func playerUpdateMsg(update playback.Update) Msg {
	return Msg{kind: MsgPlayerUpdate, data: update}
}

// playerClosedMsg is the constructor for [MsgPlayerClosed]
func playerClosedMsg() Msg {
	return Msg{kind: MsgPlayerClosed}
}

// importUpdateMsg is the constructor for [MsgImportUpdate]
func importUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgImportUpdate, data: update}
}

// actionFailedMsg is the constructor for [MsgActionFailed]
func actionFailedMsg(err error) Msg {
	return Msg{kind: MsgActionFailed, data: err}
}
