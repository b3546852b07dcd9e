//go:build !((linux && cgo) || windows || darwin)

package playback

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/shared"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio output needs cgo for the native sound libraries.
const AudioAvailable = false

// BeepBackend is a stand-in for builds without an audio output.
type BeepBackend struct{}

// NewBeepBackend always fails with [shared.ErrAudioUnavailable] in this build.
func NewBeepBackend(StreamOpener, *log.Logger) (*BeepBackend, error) {
	return nil, shared.ErrAudioUnavailable
}

func (b *BeepBackend) CanDecode(mimeType string) bool { return CanDecode(mimeType) }

func (b *BeepBackend) Create(context.Context, SoundSpec, func(Event)) (Sound, error) {
	return nil, shared.ErrAudioUnavailable
}
