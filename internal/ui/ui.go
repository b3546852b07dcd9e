package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/playback"
	"github.com/desertthunder/musik/internal/services"
	"github.com/desertthunder/musik/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AlbumListView ViewState = iota
	TrackListView
	ImportView
)

// AlbumCacher stores album tracks for later lookups by track id.
type AlbumCacher interface {
	CacheAlbum(album models.Album) (int, error)
}

// Options carries the collaborators the TUI drives.
type Options struct {
	Library services.Library
	Player  *playback.Controller
	Monitor *tasks.ImportMonitor
	Cache   AlbumCacher
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	library services.Library
	player  *playback.Controller
	monitor *tasks.ImportMonitor
	cache   AlbumCacher
	logger  *log.Logger

	width     int
	height    int
	albumList list.Model
	trackList list.Model
	album     *models.Album
	pathInput textinput.Model
	bar       progress.Model

	playerState playback.State
	nowPlaying  models.TrackRef
	position    playback.Progress
	shuffle     bool

	importChan   chan tasks.ProgressUpdate
	importUpdate *tasks.ProgressUpdate
	importStatus *models.ImportStatus

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "/path/on/server"
	input.Prompt = "path: "
	input.CharLimit = 1024

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Model{
		ctx:        ctx,
		view:       AlbumListView,
		library:    opts.Library,
		player:     opts.Player,
		monitor:    opts.Monitor,
		cache:      opts.Cache,
		logger:     logger,
		albumList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		pathInput:  input,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		shuffle:    opts.Player != nil && opts.Player.Shuffle(),
		importChan: make(chan tasks.ProgressUpdate, 64),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init fetches the album list and starts listening for player and importer events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchAlbums(), m.waitForPlayer(), m.waitForImport())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.albumList.SetSize(msg.Width-4, msg.Height-10)
		m.trackList.SetSize(msg.Width-4, msg.Height-10)
		m.bar.Width = max(msg.Width-30, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAlbumsFetched:
		res := msg.data.(albumsResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		items := make([]list.Item, len(res.albums))
		for i, a := range res.albums {
			items[i] = albumItem{album: a}
		}
		m.albumList.SetItems(items)
		m.albumList.Title = "Albums"
		return m, nil

	case MsgAlbumFetched:
		res := msg.data.(albumResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.album = res.album
		items := make([]list.Item, len(res.album.Tracks))
		for i, t := range res.album.Tracks {
			items[i] = trackItem{track: t}
		}
		m.trackList.SetItems(items)
		m.trackList.Title = res.album.Title
		m.view = TrackListView
		return m, nil

	case MsgPlayerUpdate:
		m.applyPlayerUpdate(msg.data.(playback.Update))
		return m, m.waitForPlayer()

	case MsgPlayerClosed:
		m.playerState = playback.Idle
		return m, nil

	case MsgImportUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.importUpdate = &update
		if status := update.Status(); status != nil {
			m.importStatus = status
		}
		return m, m.waitForImport()

	case MsgActionFailed:
		m.err = msg.data.(error)
		return m, nil
	}
	return m, nil
}

func (m *Model) applyPlayerUpdate(u playback.Update) {
	switch u.Kind {
	case playback.UpdateState:
		m.playerState = u.State
		if u.State == playback.Idle {
			m.position = playback.Progress{}
		}
	case playback.UpdateTrack:
		m.nowPlaying = u.Track
		m.position = playback.Progress{}
		m.err = nil
	case playback.UpdateProgress:
		m.position = u.Progress
	case playback.UpdateError:
		m.playerState = playback.Idle
		m.err = u.Err
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == ImportView && m.pathInput.Focused() {
		return m.handleImportInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.filtering():
		return m.updateActive(msg)
	case key.Matches(msg, m.keys.toggle):
		return m, m.playerAction(m.player.TogglePlayPause)
	case key.Matches(msg, m.keys.stop):
		if m.player != nil {
			m.player.Stop()
		}
		return m, nil
	case key.Matches(msg, m.keys.skip):
		return m, m.playerAction(m.player.Skip)
	case key.Matches(msg, m.keys.random):
		return m, m.playerAction(m.player.PlayRandom)
	case key.Matches(msg, m.keys.shuffle):
		if m.player != nil {
			m.shuffle = !m.shuffle
			m.player.SetShuffle(m.shuffle)
		}
		return m, nil
	case key.Matches(msg, m.keys.imports):
		m.view = ImportView
		m.pathInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.cancel):
		if m.monitor != nil {
			m.monitor.Stop()
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		m.view = AlbumListView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m.handleEnter()
	}

	return m.updateActive(msg)
}

func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.view {
	case AlbumListView:
		if item, ok := m.albumList.SelectedItem().(albumItem); ok {
			return m, m.fetchAlbum(item.album.ID)
		}
	case TrackListView:
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			ref := item.track.Ref()
			return m, m.playerAction(func(ctx context.Context) error {
				return m.player.Play(ctx, ref)
			})
		}
	}
	return m, nil
}

func (m *Model) handleImportInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.pathInput.Blur()
		m.view = AlbumListView
		return m, nil
	case tea.KeyEnter:
		path := m.pathInput.Value()
		m.pathInput.Blur()
		m.pathInput.SetValue("")
		return m, m.submitImport(path)
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) filtering() bool {
	switch m.view {
	case AlbumListView:
		return m.albumList.FilterState() == list.Filtering
	case TrackListView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case AlbumListView:
		m.albumList, cmd = m.albumList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case ImportView:
		m.pathInput, cmd = m.pathInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchAlbums() tea.Cmd {
	return func() tea.Msg {
		albums, err := m.library.Albums(m.ctx)
		return albumsFetchedMsg(albums, err)
	}
}

func (m *Model) fetchAlbum(id int64) tea.Cmd {
	return func() tea.Msg {
		album, err := m.library.Album(m.ctx, id)
		if err == nil && m.cache != nil {
			if _, cacheErr := m.cache.CacheAlbum(*album); cacheErr != nil {
				m.logger.Warn("failed to cache album tracks", "album", id, "error", cacheErr)
			}
		}
		return albumFetchedMsg(album, err)
	}
}

// playerAction runs a blocking controller call off the update loop. Failures
// are published on the update channel as well, so they are only logged here.
func (m *Model) playerAction(action func(context.Context) error) tea.Cmd {
	if m.player == nil {
		return nil
	}
	return func() tea.Msg {
		if err := action(m.ctx); err != nil {
			m.logger.Debug("player action failed", "error", err)
		}
		return nil
	}
}

func (m *Model) submitImport(path string) tea.Cmd {
	if m.monitor == nil {
		return nil
	}
	return func() tea.Msg {
		if _, err := m.monitor.Submit(m.ctx, path, m.importChan); err != nil {
			return actionFailedMsg(err)
		}
		return nil
	}
}

func (m *Model) waitForPlayer() tea.Cmd {
	if m.player == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.player.Updates()
		if !ok {
			return playerClosedMsg()
		}
		return playerUpdateMsg(update)
	}
}

func (m *Model) waitForImport() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.importChan:
			return importUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case AlbumListView:
		body = m.albumList.View()
	case TrackListView:
		body = m.trackList.View()
	case ImportView:
		body = m.renderImport()
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) helpKeys() []key.Binding {
	switch m.view {
	case TrackListView:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.toggle, m.keys.skip, m.keys.shuffle, m.keys.quit}
	case ImportView:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.cancel}
	default:
		return []key.Binding{m.keys.enter, m.keys.random, m.keys.toggle, m.keys.imports, m.keys.quit}
	}
}

func (m *Model) renderNowPlaying() string {
	state := m.playerState.String()
	if m.shuffle {
		state += " • shuffle"
	}

	line := styles.help.Render(state)
	if m.playerState != playback.Idle && (m.nowPlaying.ID != "" || m.nowPlaying.StreamURI != "") {
		line = fmt.Sprintf("%s %s  %s %s",
			styles.ok.Render("♪"),
			m.nowPlaying.String(),
			m.bar.ViewAs(m.position.Fraction()),
			m.position.String(),
		)
		line += "  " + styles.help.Render(state)
	}
	return styles.bar.Render(line)
}

func (m *Model) renderImport() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Import"))
	b.WriteString("\n")
	b.WriteString(m.pathInput.View())
	b.WriteString("\n\n")

	if m.importUpdate != nil {
		u := m.importUpdate
		phase := u.Phase.String()
		switch u.Phase {
		case tasks.Finished:
			phase = styles.ok.Render(phase)
		case tasks.Aborted, tasks.Rejected, tasks.PollFailed:
			phase = styles.err.Render(phase)
		}
		fmt.Fprintf(&b, "%s  %s\n", phase, u.Message)
		if u.Phase == tasks.Polled && u.Total > 0 {
			fmt.Fprintf(&b, "idle polls %d/%d\n", u.Step, u.Total)
		}
	}

	if s := m.importStatus; s != nil {
		current := "none"
		if s.CurrentTask != nil {
			current = s.CurrentTask.URI
		}
		fmt.Fprintf(&b, "\ncurrent task: %s\noutstanding: %d\n", current, s.OutstandingTasks)
		for _, w := range s.Warnings {
			b.WriteString(styles.warn.Render("warning: "+w.Message) + "\n")
		}
		for _, e := range s.Errors {
			b.WriteString(styles.err.Render("error: "+e.Message) + "\n")
		}
	}
	return b.String()
}
