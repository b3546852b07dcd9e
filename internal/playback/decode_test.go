package playback

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
)

func TestCanDecode(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{MimeMP3, true},
		{MimeVorbis, true},
		{"audio/ogg; codecs=vorbis", true},
		{"audio/FLAC", true},
		{"audio/x-wav", true},
		{"audio/aac", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := CanDecode(tt.mime); got != tt.want {
			t.Errorf("CanDecode(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}

	if _, err := decoderFor("audio/aac"); !errors.Is(err, ErrUnsupportedMime) {
		t.Errorf("expected ErrUnsupportedMime, got %v", err)
	}
}

func TestCountingReader(t *testing.T) {
	r := &countingReader{rc: io.NopCloser(strings.NewReader("0123456789"))}

	buf := make([]byte, 4)
	r.Read(buf)
	if r.Count() != 4 {
		t.Errorf("Count() = %d, want 4", r.Count())
	}
	io.Copy(io.Discard, r)
	if r.Count() != 10 {
		t.Errorf("Count() = %d, want 10", r.Count())
	}
}

func TestEstimateDuration(t *testing.T) {
	rate := beep.SampleRate(1000)

	if got := estimateDuration(rate, 10000, 250, 1000); got != 40*time.Second {
		t.Errorf("estimateDuration() = %v, want 40s", got)
	}
	if got := estimateDuration(rate, 0, 250, 1000); got != 0 {
		t.Errorf("expected 0 with nothing played, got %v", got)
	}
	if got := estimateDuration(rate, 10000, 250, -1); got != 0 {
		t.Errorf("expected 0 with unknown length, got %v", got)
	}
}
