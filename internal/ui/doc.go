// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// Views:
//  1. [AlbumListView] : Browse the server's albums
//  2. [TrackListView] : Tracks of the selected album; enter plays one
//  3. [ImportView] : Submit a path for import and watch the importer drain
//
// A now-playing bar is rendered under every view. The (view) [Model] implements
// the Init/Update/View pattern and receives its own events via the [Msg] union.
// Player and importer updates arrive on channels and are read one message at
// a time, so the update loop never blocks on the network.
//
// Keyboard navigation uses single-key bindings (space, s, n, z, r, i, x, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
