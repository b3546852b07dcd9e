package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musik/internal/playback"
	"github.com/desertthunder/musik/internal/shared"
	"github.com/desertthunder/musik/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	if err := shared.ApplyLogLevel(fileLogger, r.config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}
	r.SetLogger(fileLogger)

	backend, err := playback.NewBeepBackend(r.musik, shared.WithLogger(fileLogger, "component", "audio"))
	if err != nil {
		return err
	}
	player := playback.NewController(r.musik, backend, playback.Options{
		Shuffle:          r.config.Player.Shuffle,
		ProgressInterval: r.config.Player.ProgressInterval(),
	}, shared.WithLogger(fileLogger, "component", "player"))
	defer player.Close()

	monitor := r.importMonitor()
	defer monitor.Stop()

	opts := ui.Options{
		Library: r.musik,
		Player:  player,
		Monitor: monitor,
		Logger:  fileLogger,
	}
	if cache := r.trackCache(); cache != nil {
		opts.Cache = cache
	}

	p := tea.NewProgram(ui.NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
