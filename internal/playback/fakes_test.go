package playback

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/models"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func decodes(mimeTypes ...string) DecodeFunc {
	set := map[string]bool{}
	for _, m := range mimeTypes {
		set[m] = true
	}
	return func(m string) bool { return set[m] }
}

type fakeBackend struct {
	mu        sync.Mutex
	canDecode DecodeFunc
	autoStart bool
	createErr error
	opener    StreamOpener
	opened    chan error
	log       []string
	sounds    []*fakeSound
}

func newFakeBackend(mimeTypes ...string) *fakeBackend {
	return &fakeBackend{canDecode: decodes(mimeTypes...), autoStart: true}
}

func (b *fakeBackend) CanDecode(m string) bool { return b.canDecode(m) }

func (b *fakeBackend) Create(ctx context.Context, spec SoundSpec, emit func(Event)) (Sound, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.createErr != nil {
		return nil, b.createErr
	}

	b.log = append(b.log, "create "+spec.URI)
	s := &fakeSound{backend: b, spec: spec, emit: emit}
	b.sounds = append(b.sounds, s)

	if b.opener != nil {
		go func() {
			stream, err := b.opener.OpenStream(ctx, spec.URI)
			if err == nil {
				stream.Body.Close()
			}
			b.opened <- err
		}()
	}

	if b.autoStart {
		emit(Event{Kind: EventLoaded})
		emit(Event{Kind: EventStarted})
	}
	return s, nil
}

func (b *fakeBackend) record(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, line)
}

func (b *fakeBackend) Log() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.log...)
}

func (b *fakeBackend) Created() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sounds)
}

func (b *fakeBackend) Last() *fakeSound {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sounds) == 0 {
		return nil
	}
	return b.sounds[len(b.sounds)-1]
}

type fakeSound struct {
	backend *fakeBackend
	spec    SoundSpec
	emit    func(Event)

	mu       sync.Mutex
	sample   Sample
	released bool
}

func (s *fakeSound) Play()   { s.backend.record("play " + s.spec.URI) }
func (s *fakeSound) Pause()  { s.backend.record("pause " + s.spec.URI) }
func (s *fakeSound) Resume() { s.backend.record("resume " + s.spec.URI) }
func (s *fakeSound) Stop()   { s.backend.record("stop " + s.spec.URI) }

func (s *fakeSound) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
	s.backend.record("release " + s.spec.URI)
}

func (s *fakeSound) Sample() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample
}

func (s *fakeSound) SetSample(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = sample
}

func (s *fakeSound) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *fakeSound) Finish() { s.emit(Event{Kind: EventFinished}) }

type fakeSource struct {
	mu         sync.Mutex
	encoders   []string
	encErr     error
	encCalls   int
	randoms    []string
	randErr    error
	randCalls  int
	randomGate chan struct{}
}

func (s *fakeSource) Encoders(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encCalls++
	if s.encErr != nil {
		return nil, s.encErr
	}
	return s.encoders, nil
}

func (s *fakeSource) RandomTrack(ctx context.Context) (models.RandomTrack, error) {
	if s.randomGate != nil {
		select {
		case <-s.randomGate:
		case <-ctx.Done():
			return models.RandomTrack{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.randCalls++
	if s.randErr != nil {
		return models.RandomTrack{}, s.randErr
	}
	if len(s.randoms) == 0 {
		return models.RandomTrack{}, errors.New("no tracks")
	}
	uri := s.randoms[(s.randCalls-1)%len(s.randoms)]
	return models.RandomTrack{StreamURI: uri}, nil
}

func (s *fakeSource) StreamPath(trackID, suffix string) string {
	return "/api/stream/" + trackID + "/" + suffix
}

func (s *fakeSource) RandomCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.randCalls
}

func (s *fakeSource) EncoderCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encCalls
}

func hasPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
