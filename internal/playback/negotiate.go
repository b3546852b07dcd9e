package playback

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/desertthunder/musik/internal/shared"
)

// Transcode targets the server can be asked for.
const (
	MimeVorbis = "audio/ogg"
	MimeMP3    = "audio/mpeg"
)

// Capabilities records which transcode targets both the server and this client support.
type Capabilities struct {
	Vorbis bool
	MP3    bool
}

// Any reports whether at least one transcode target is usable.
func (c Capabilities) Any() bool { return c.Vorbis || c.MP3 }

// DecodeFunc reports whether the local audio backend can decode a MIME type.
type DecodeFunc func(mimeType string) bool

// NormalizeMime lowercases a MIME type and strips parameters such as "; codecs=vorbis".
func NormalizeMime(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Negotiate intersects the server's encoders with what canDecode accepts.
//
// Only [MimeVorbis] and [MimeMP3] are considered; other types are ignored.
func Negotiate(serverMimeTypes []string, canDecode DecodeFunc) Capabilities {
	var caps Capabilities
	for _, mt := range serverMimeTypes {
		switch NormalizeMime(mt) {
		case MimeVorbis:
			caps.Vorbis = caps.Vorbis || canDecode(MimeVorbis)
		case MimeMP3:
			caps.MP3 = caps.MP3 || canDecode(MimeMP3)
		}
	}
	return caps
}

// SelectFormat picks the MIME type to request for a track whose native type is nativeMime.
//
// A known, locally decodable native type is used as-is. Otherwise Vorbis is
// preferred over MP3. With neither available it fails with [shared.ErrNoCompatibleFormat].
func SelectFormat(nativeMime string, canDecode DecodeFunc, caps Capabilities) (string, error) {
	if native := NormalizeMime(nativeMime); native != "" && canDecode(native) {
		return native, nil
	}

	switch {
	case caps.Vorbis:
		return MimeVorbis, nil
	case caps.MP3:
		return MimeMP3, nil
	}

	if nativeMime == "" {
		return "", shared.ErrNoCompatibleFormat
	}
	return "", fmt.Errorf("%w: native type %s", shared.ErrNoCompatibleFormat, nativeMime)
}

// FormatSuffix returns the subtype of mimeType, the last segment of a stream URI:
// "audio/mpeg" gives "mpeg" and "audio/ogg" gives "ogg".
func FormatSuffix(mimeType string) string {
	mt := NormalizeMime(mimeType)
	if _, sub, ok := strings.Cut(mt, "/"); ok {
		return sub
	}
	return mt
}

// EncoderLister returns the MIME types the server can transcode to.
type EncoderLister interface {
	Encoders(ctx context.Context) ([]string, error)
}

// Negotiator discovers [Capabilities] once per session.
//
// A successful discovery is never repeated, even when it finds nothing usable.
// A failed request is not cached, so the next call asks the server again.
type Negotiator struct {
	lister    EncoderLister
	canDecode DecodeFunc

	mu   sync.Mutex
	caps *Capabilities
}

// NewNegotiator creates a [Negotiator] for the given server and local decoder.
func NewNegotiator(lister EncoderLister, canDecode DecodeFunc) *Negotiator {
	return &Negotiator{lister: lister, canDecode: canDecode}
}

// Capabilities returns the session's capabilities, discovering them on first use.
func (n *Negotiator) Capabilities(ctx context.Context) (Capabilities, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.caps != nil {
		return *n.caps, nil
	}

	encoders, err := n.lister.Encoders(ctx)
	if err != nil {
		return Capabilities{}, fmt.Errorf("failed to discover server encoders: %w", err)
	}

	caps := Negotiate(encoders, n.canDecode)
	n.caps = &caps
	return caps, nil
}

// Known reports whether discovery has already succeeded.
func (n *Negotiator) Known() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.caps != nil
}
