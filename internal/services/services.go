package services

import (
	"context"

	"github.com/desertthunder/musik/internal/models"
)

// Library defines catalog browsing against a musik server.
type Library interface {
	// Albums lists every album without track listings.
	Albums(ctx context.Context) ([]models.Album, error)

	// Album retrieves one album including its tracks.
	Album(ctx context.Context, id int64) (*models.Album, error)

	// Artists lists every artist without album listings.
	Artists(ctx context.Context) ([]models.Artist, error)

	// Artist retrieves one artist including their albums.
	Artist(ctx context.Context, id int64) (*models.Artist, error)
}

// Importer defines the server-side media import endpoints.
type Importer interface {
	// SubmitImport queues path for import on the server.
	SubmitImport(ctx context.Context, path string) error

	// ImportStatus fetches a snapshot of the importer's queue.
	ImportStatus(ctx context.Context) (*models.ImportStatus, error)
}

var (
	_ Library  = (*MusikService)(nil)
	_ Importer = (*MusikService)(nil)
)
