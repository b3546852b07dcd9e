package tasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/services"
	"github.com/desertthunder/musik/internal/shared"
)

// Acknowledgment is returned when the server accepts an import path.
type Acknowledgment struct {
	Path        string
	SubmittedAt time.Time
}

// Submitter validates import paths and posts them to the server.
type Submitter struct {
	api    ImportSubmitter
	logger *log.Logger
}

// NewSubmitter creates a [Submitter]. logger may be nil.
func NewSubmitter(api ImportSubmitter, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Submitter{api: api, logger: shared.WithLogger(logger, "component", "submitter")}
}

// Submit queues path for import.
//
// A blank path fails with [shared.ErrInvalidPath] before any request is made.
// A 404 from the server becomes [shared.ErrPathNotFound]; any other failure
// becomes [shared.ErrSubmissionFailed] wrapping the cause.
func (s *Submitter) Submit(ctx context.Context, path string) (*Acknowledgment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, shared.ErrInvalidPath
	}

	if err := s.api.SubmitImport(ctx, path); err != nil {
		if services.StatusCode(err) == http.StatusNotFound {
			s.logger.Warn("import path rejected", "path", path)
			return nil, fmt.Errorf("%w: %s", shared.ErrPathNotFound, path)
		}
		s.logger.Error("import submission failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrSubmissionFailed, err)
	}

	s.logger.Info("import queued", "path", path)
	return &Acknowledgment{Path: path, SubmittedAt: time.Now()}, nil
}
