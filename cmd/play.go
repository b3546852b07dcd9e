package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/playback"
	"github.com/desertthunder/musik/internal/shared"
	"github.com/urfave/cli/v3"
)

// Encoders lists the server's encoders and which of them this client can decode.
func (r *Runner) Encoders(ctx context.Context, cmd *cli.Command) error {
	mimeTypes, err := r.musik.Encoders(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover server encoders: %w", err)
	}
	caps := playback.Negotiate(mimeTypes, playback.CanDecode)

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Encoders []string `json:"encoders"`
			Vorbis   bool     `json:"vorbis"`
			MP3      bool     `json:"mp3"`
		}{mimeTypes, caps.Vorbis, caps.MP3}, true)
	}

	for _, mime := range mimeTypes {
		mark := " "
		if playback.CanDecode(mime) {
			mark = "✓"
		}
		r.writePlain("%s %s\n", mark, mime)
	}
	if !caps.Any() {
		return r.writePlain("\nNo encoder offers a format this client can play.\n")
	}
	return nil
}

// Play streams one track, or random tracks when no id is given, until it ends or the process is interrupted.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "player")
	backend, err := playback.NewBeepBackend(r.musik, logger)
	if err != nil {
		return err
	}

	shuffle := cmd.Bool("shuffle") || r.config.Player.Shuffle
	controller := playback.NewController(r.musik, backend, playback.Options{
		Shuffle:          shuffle,
		ProgressInterval: r.config.Player.ProgressInterval(),
	}, logger)
	defer controller.Close()

	if trackID := cmd.StringArg("track-id"); trackID != "" {
		ref, err := r.trackRef(trackID, cmd.String("mime"))
		if err != nil {
			return err
		}
		err = controller.Play(ctx, ref)
	} else {
		err = controller.PlayRandom(ctx)
	}
	if err != nil {
		return err
	}

	return r.followPlayback(ctx, controller)
}

// trackRef looks trackID up in the catalog cache so its native format is known.
func (r *Runner) trackRef(trackID, mime string) (models.TrackRef, error) {
	ref := models.TrackRef{ID: trackID}
	if cache := r.trackCache(); cache != nil {
		cached, err := cache.Ref(trackID)
		if err != nil {
			return ref, err
		}
		ref = cached
	}
	if mime != "" {
		ref.MimeType = mime
	}
	return ref, nil
}

// followPlayback prints controller updates until the player goes idle.
func (r *Runner) followPlayback(ctx context.Context, controller *playback.Controller) error {
	for {
		select {
		case <-ctx.Done():
			controller.Stop()
			r.writePlain("\n")
			return nil
		case u, ok := <-controller.Updates():
			if !ok {
				return nil
			}
			switch u.Kind {
			case playback.UpdateTrack:
				r.writePlain("\n♪ %s\n", u.Track)
			case playback.UpdateProgress:
				r.writePlain("\r%-24s", u.Progress)
			case playback.UpdateError:
				r.writePlain("\n")
				return playbackError(u.Err)
			case playback.UpdateState:
				r.logger.Debug("player state", "state", u.State)
				if u.State != playback.Idle {
					continue
				}
				r.writePlain("\n")
				// A failure publishes Idle first and the error right after it.
				select {
				case next, ok := <-controller.Updates():
					if ok && next.Kind == playback.UpdateError {
						return playbackError(next.Err)
					}
				default:
				}
				return nil
			}
		}
	}
}

func playbackError(err error) error {
	if errors.Is(err, shared.ErrPlaybackResolutionFailed) || errors.Is(err, shared.ErrNoCompatibleFormat) {
		return err
	}
	return fmt.Errorf("playback failed: %w", err)
}
