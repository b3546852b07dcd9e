// package tasks implements the import job monitor: submitting paths to the
// server's importer and polling its queue until the work is done.
package tasks

import (
	"context"

	"github.com/desertthunder/musik/internal/models"
)

// ImportSubmitter posts an import request. Implemented by services.MusikService.
type ImportSubmitter interface {
	SubmitImport(ctx context.Context, path string) error
}

// StatusFetcher retrieves an importer snapshot. Implemented by services.MusikService.
type StatusFetcher interface {
	ImportStatus(ctx context.Context) (*models.ImportStatus, error)
}

// ImportAPI is everything the [ImportMonitor] needs from the server.
type ImportAPI interface {
	ImportSubmitter
	StatusFetcher
}

// ImportRecorder persists the history of submissions. Implemented by
// repositories.ImportRepository.
type ImportRecorder interface {
	Create(record *models.ImportRecord) error
	Update(record *models.ImportRecord) error
}
