package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrSessionExpired = fmt.Errorf("session expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrAlbumNotFound      = fmt.Errorf("album not found")
	ErrArtistNotFound     = fmt.Errorf("artist not found")

	// Import errors
	ErrInvalidPath      = fmt.Errorf("invalid import path")
	ErrPathNotFound     = fmt.Errorf("path not found on server")
	ErrSubmissionFailed = fmt.Errorf("import submission failed")
	ErrTooManyFailures  = fmt.Errorf("import status polling failed repeatedly")
	ErrImportNotFound   = fmt.Errorf("import record not found")

	// Playback errors
	ErrNoCompatibleFormat       = fmt.Errorf("no compatible audio format")
	ErrPlaybackResolutionFailed = fmt.Errorf("could not resolve a track to play")
	ErrAudioUnavailable         = fmt.Errorf("audio output unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
