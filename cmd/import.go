package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/musik/internal/formatter"
	"github.com/desertthunder/musik/internal/repositories"
	"github.com/desertthunder/musik/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ImportAdd queues a server-side path and polls until the importer has been idle for the grace window.
func (r *Runner) ImportAdd(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := cmd.StringArg("path")
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	if cmd.Bool("detach") {
		ack, err := tasks.NewSubmitter(r.musik, r.logger).Submit(ctx, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Queued %s\n", ack.Path)
	}

	monitor := r.importMonitor()
	progress := make(chan tasks.ProgressUpdate, 64)
	if _, err := monitor.Submit(ctx, path, progress); err != nil {
		return err
	}
	return r.followImport(ctx, monitor, progress)
}

// ImportWatch polls the importer without submitting anything.
func (r *Runner) ImportWatch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	monitor := r.importMonitor()
	progress := make(chan tasks.ProgressUpdate, 64)
	monitor.Watch(ctx, progress)
	return r.followImport(ctx, monitor, progress)
}

// followImport prints progress until the monitor's run ends.
func (r *Runner) followImport(ctx context.Context, monitor *tasks.ImportMonitor, progress <-chan tasks.ProgressUpdate) error {
	type outcome struct {
		phase tasks.Phase
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		phase, err := monitor.Wait(context.WithoutCancel(ctx))
		done <- outcome{phase, err}
	}()

	show := func(u tasks.ProgressUpdate) {
		r.writePlain("[%s] %s\n", u.Phase, u.Message)
		if status := u.Status(); status != nil {
			for _, w := range status.Warnings {
				r.writePlain("  warning: %s\n", w.Message)
			}
			for _, e := range status.Errors {
				r.writePlain("  error: %s\n", e.Message)
			}
		}
	}

	for {
		select {
		case u := <-progress:
			show(u)
		case res := <-done:
			for len(progress) > 0 {
				show(<-progress)
			}
			switch res.phase {
			case tasks.Finished:
				return r.writePlain("✓ Importer idle\n")
			case tasks.Aborted:
				return res.err
			default:
				return nil
			}
		}
	}
}

// ImportStatus fetches and prints one importer snapshot.
func (r *Runner) ImportStatus(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	status, err := r.musik.ImportStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch importer status: %w", err)
	}

	data, err := formatter.ImportStatus(*status, -1, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}

// ImportHistory lists submissions recorded in the catalog cache.
func (r *Runner) ImportHistory(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open catalog cache: %w", err)
	}

	records, err := repositories.NewImportRepository(db).Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	data, err := formatter.ImportHistory(records, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}
