//go:build (linux && cgo) || windows || darwin

package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const outputSampleRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10))
	})
	return speakerErr
}

// BeepBackend plays streams on the system speaker.
type BeepBackend struct {
	opener StreamOpener
	logger *log.Logger
}

// NewBeepBackend initialises the speaker and returns a backend that downloads
// streams through opener.
func NewBeepBackend(opener StreamOpener, logger *log.Logger) (*BeepBackend, error) {
	if err := initSpeaker(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAudioUnavailable, err)
	}
	return &BeepBackend{opener: opener, logger: logger}, nil
}

func (b *BeepBackend) CanDecode(mimeType string) bool { return CanDecode(mimeType) }

// Create starts downloading spec.URI in the background.
func (b *BeepBackend) Create(ctx context.Context, spec SoundSpec, emit func(Event)) (Sound, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &beepSound{spec: spec, emit: emit, cancel: cancel, logger: b.logger}
	go s.load(ctx, b.opener)
	return s, nil
}

type beepSound struct {
	spec   SoundSpec
	emit   func(Event)
	cancel context.CancelFunc
	logger *log.Logger

	mu       sync.Mutex
	body     *countingReader
	total    int64
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	started  bool
	stopped  bool
	released bool
}

func (s *beepSound) load(ctx context.Context, opener StreamOpener) {
	stream, err := opener.OpenStream(ctx, s.spec.URI)
	if err != nil {
		s.fail(err)
		return
	}

	mimeType := s.spec.MimeType
	if mimeType == "" {
		mimeType = stream.ContentType
	}
	body := &countingReader{rc: stream.Body}

	decode, err := decoderFor(mimeType)
	if err != nil {
		body.Close()
		s.fail(err)
		return
	}
	streamer, format, err := decode(body)
	if err != nil {
		body.Close()
		s.fail(fmt.Errorf("failed to decode %s: %w", mimeType, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		streamer.Close()
		return
	}

	s.body = body
	s.total = stream.ContentLength
	s.streamer = streamer
	s.format = format
	s.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, outputSampleRate, streamer),
		Paused:   !s.spec.AutoPlay,
	}
	s.emit(Event{Kind: EventLoaded})

	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
		// the speaker holds its lock while running callbacks
		go s.finished()
	})))

	if s.spec.AutoPlay {
		s.started = true
		s.emit(Event{Kind: EventStarted})
	}
}

func (s *beepSound) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.logger.Warn("sound failed", "uri", s.spec.URI, "error", err)
	s.emit(Event{Kind: EventFailed, Err: err})
}

func (s *beepSound) finished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.released {
		return
	}
	if err := s.streamer.Err(); err != nil {
		s.emit(Event{Kind: EventFailed, Err: err})
		return
	}
	s.emit(Event{Kind: EventFinished})
}

func (s *beepSound) setPaused(paused bool) bool {
	if s.ctrl == nil || s.stopped {
		return false
	}
	speaker.Lock()
	changed := s.ctrl.Paused != paused
	s.ctrl.Paused = paused
	speaker.Unlock()
	return changed
}

func (s *beepSound) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setPaused(false) && !s.started {
		s.started = true
		s.emit(Event{Kind: EventStarted})
	}
}

func (s *beepSound) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setPaused(true) {
		s.emit(Event{Kind: EventPaused})
	}
}

func (s *beepSound) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setPaused(false) {
		s.emit(Event{Kind: EventResumed})
	}
}

func (s *beepSound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.setPaused(true)
	s.stopped = true
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}
	s.emit(Event{Kind: EventStopped})
}

func (s *beepSound) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.stopped = true
	s.cancel()
	if s.streamer != nil {
		speaker.Lock()
		s.streamer.Close()
		speaker.Unlock()
		s.streamer = nil
	}
	if s.body != nil {
		s.body.Close()
	}
	s.ctrl = nil
}

func (s *beepSound) Sample() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return Sample{}
	}

	speaker.Lock()
	played, length := s.streamer.Position(), s.streamer.Len()
	speaker.Unlock()

	sample := Sample{
		Position:    s.format.SampleRate.D(played),
		BytesLoaded: s.body.Count(),
		BytesTotal:  s.total,
	}
	if length > 0 {
		sample.Duration = s.format.SampleRate.D(length)
	} else {
		sample.DurationEstimate = estimateDuration(s.format.SampleRate, played, sample.BytesLoaded, s.total)
	}
	return sample
}
