package playback

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/desertthunder/musik/internal/services"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// StreamOpener downloads the audio behind a stream URI.
type StreamOpener interface {
	OpenStream(ctx context.Context, uri string) (*services.Stream, error)
}

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func decodeFLAC(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(rc) }
func decodeWAV(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)  { return wav.Decode(rc) }

var decoders = map[string]decodeFunc{
	MimeMP3:        mp3.Decode,
	"audio/mp3":    mp3.Decode,
	MimeVorbis:     vorbis.Decode,
	"audio/vorbis": vorbis.Decode,
	"audio/flac":   decodeFLAC,
	"audio/x-flac": decodeFLAC,
	"audio/wav":    decodeWAV,
	"audio/wave":   decodeWAV,
	"audio/x-wav":  decodeWAV,
}

// CanDecode reports whether this build can decode mimeType.
func CanDecode(mimeType string) bool {
	_, ok := decoders[NormalizeMime(mimeType)]
	return ok
}

func decoderFor(mimeType string) (decodeFunc, error) {
	dec, ok := decoders[NormalizeMime(mimeType)]
	if !ok {
		return nil, fmt.Errorf("%w: cannot decode %q", ErrUnsupportedMime, mimeType)
	}
	return dec, nil
}

// ErrUnsupportedMime is returned when a stream arrives in a format with no decoder.
var ErrUnsupportedMime = fmt.Errorf("unsupported audio type")

// countingReader tracks how many bytes the decoder has pulled from the network.
type countingReader struct {
	rc io.ReadCloser
	n  atomic.Int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.n.Add(int64(n))
	return n, err
}

func (r *countingReader) Close() error { return r.rc.Close() }

func (r *countingReader) Count() int64 { return r.n.Load() }

// estimateDuration extrapolates a total duration from how far the decoder
// got through the bytes it has read so far.
func estimateDuration(rate beep.SampleRate, played int, consumed, total int64) time.Duration {
	if played <= 0 || consumed <= 0 || total <= 0 {
		return 0
	}
	return time.Duration(float64(rate.D(played)) * float64(total) / float64(consumed))
}
