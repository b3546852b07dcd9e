package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/musik/internal/formatter"
	"github.com/desertthunder/musik/internal/repositories"
	"github.com/desertthunder/musik/internal/shared"
	"github.com/urfave/cli/v3"
)

func parseID(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q is not a positive integer", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// LibraryAlbums lists every album on the server.
func (r *Runner) LibraryAlbums(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	albums, err := r.musik.Albums(ctx)
	if err != nil {
		return fmt.Errorf("failed to list albums: %w", err)
	}
	r.logger.Debug("fetched albums", "count", len(albums))

	data, err := formatter.Albums(albums, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}

// LibraryAlbum shows one album and writes its tracks through to the catalog cache.
//
// With --cached the album is read back from the cache without contacting the server.
func (r *Runner) LibraryAlbum(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if cmd.Bool("cached") {
		db, err := r.database()
		if err != nil {
			return fmt.Errorf("failed to open catalog cache: %w", err)
		}
		album, err := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db)).Album(id)
		if err != nil {
			return err
		}
		data, err := formatter.Album(*album, format)
		if err != nil {
			return err
		}
		return r.writeRendered(data, cmd.String("output"))
	}

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	album, err := r.musik.Album(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get album %d: %w", id, err)
	}

	if cache := r.trackCache(); cache != nil {
		if n, err := cache.CacheAlbum(*album); err != nil {
			r.logger.Warn("failed to cache album tracks", "album", id, "error", err)
		} else {
			r.logger.Debug("cached album tracks", "album", id, "tracks", n)
		}
	}

	data, err := formatter.Album(*album, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}

// LibraryArtists lists every artist on the server.
func (r *Runner) LibraryArtists(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	artists, err := r.musik.Artists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list artists: %w", err)
	}

	data, err := formatter.Artists(artists, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}

// LibraryArtist shows one artist and their albums.
func (r *Runner) LibraryArtist(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	artist, err := r.musik.Artist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get artist %d: %w", id, err)
	}

	data, err := formatter.Artist(*artist, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}
