package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/formatter"
	"github.com/desertthunder/musik/internal/repositories"
	"github.com/desertthunder/musik/internal/services"
	"github.com/desertthunder/musik/internal/shared"
	"github.com/desertthunder/musik/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	musik      *services.MusikService
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Musik      *services.MusikService
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Musik == nil {
		opts.Musik = services.NewMusikService(opts.Config.Server.BaseURL, opts.HTTPClient)
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Server.BaseURL, opts.HTTPClient)
	}

	r := &Runner{
		config:     opts.Config,
		musik:      opts.Musik,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.DB != nil {
		r.dbOnce.Do(func() { r.db = opts.DB })
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, encodersCommand, playCommand, importCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by commands started after the call.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the catalog cache if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// ensureSession logs in with the configured credentials unless a valid session is already held.
func (r *Runner) ensureSession(ctx context.Context) error {
	if s := r.musik.Session(); s.Valid(time.Now()) {
		return nil
	}

	creds := r.config.Credentials
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("%w: set credentials in config.toml or %s/%s", shared.ErrMissingCredentials, shared.EnvUsername, shared.EnvPassword)
	}

	r.logger.Debug("logging in", "username", creds.Username)
	if _, err := r.musik.Login(ctx, creds.Username, creds.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

// database opens the catalog cache on first use.
func (r *Runner) database() (*sql.DB, error) {
	r.dbOnce.Do(func() {
		r.db, r.dbErr = shared.OpenDatabase(r.config.Database)
	})
	return r.db, r.dbErr
}

// trackCache returns the write-through cache for album tracks, or nil when the database cannot be opened.
func (r *Runner) trackCache() *repositories.TrackCacheAdapter {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("catalog cache unavailable", "error", err)
		return nil
	}
	return repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
}

// importMonitor builds a monitor that records each submission in the import history when the cache is available.
func (r *Runner) importMonitor() *tasks.ImportMonitor {
	monitor := tasks.NewImportMonitor(r.musik, tasks.PollerOptions{
		Interval:    r.config.Importer.PollInterval(),
		GraceCount:  r.config.Importer.GraceCount,
		MaxFailures: r.config.Importer.MaxFailures,
	}, r.logger)

	if db, err := r.database(); err == nil {
		monitor.WithRecorder(repositories.NewImportRepository(db))
	} else {
		r.logger.Warn("import history disabled", "error", err)
	}
	return monitor
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeRendered sends formatter output to path when given, or to the runner's writer.
func (r *Runner) writeRendered(data []byte, path string) error {
	if path != "" {
		if err := formatter.WriteExport(path, data); err != nil {
			return err
		}
		r.logger.Info("output written", "path", path)
		return nil
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
