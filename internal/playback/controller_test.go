package playback

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/services"
	"github.com/desertthunder/musik/internal/shared"
	tu "github.com/desertthunder/musik/internal/testing"
)

const waitFor = 2 * time.Second

func newTestController(t *testing.T, src Source, backend *fakeBackend, opts Options) *Controller {
	t.Helper()
	c := NewController(src, backend, opts, quietLogger())
	t.Cleanup(c.Close)
	return c
}

func waitState(t *testing.T, c *Controller, want State) {
	t.Helper()
	tu.Eventually(t, waitFor, func() bool { return c.State() == want }, "state "+want.String())
}

func drain(c *Controller) []Update {
	var out []Update
	for {
		select {
		case u, ok := <-c.Updates():
			if !ok {
				return out
			}
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestController(t *testing.T) {
	ctx := context.Background()
	flac := models.TrackRef{ID: "7", MimeType: "audio/flac"}

	t.Run("Play", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeVorbis, MimeMP3}}
		backend := newFakeBackend(MimeVorbis, MimeMP3)
		c := newTestController(t, src, backend, Options{})

		if err := c.Play(ctx, flac); err != nil {
			t.Fatalf("Play() error = %v", err)
		}
		waitState(t, c, Playing)

		if got := backend.Log(); !reflect.DeepEqual(got, []string{"create /api/stream/7/ogg"}) {
			t.Errorf("backend log = %v", got)
		}
		if ref, ok := c.Track(); !ok || ref.ID != "7" {
			t.Errorf("Track() = %+v, %v", ref, ok)
		}
	})

	t.Run("Native Format Skips Discovery", func(t *testing.T) {
		src := &fakeSource{encErr: errors.New("unreachable")}
		backend := newFakeBackend("audio/flac")
		c := newTestController(t, src, backend, Options{})

		if err := c.Play(ctx, flac); err != nil {
			t.Fatalf("Play() error = %v", err)
		}
		if src.EncoderCalls() != 0 {
			t.Errorf("expected no encoder request, got %d", src.EncoderCalls())
		}
		if got := backend.Log(); !reflect.DeepEqual(got, []string{"create /api/stream/7/flac"}) {
			t.Errorf("backend log = %v", got)
		}
	})

	t.Run("Play Then Play", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		c.Play(ctx, models.TrackRef{ID: "1"})
		c.Play(ctx, models.TrackRef{ID: "2"})
		waitState(t, c, Playing)

		want := []string{
			"create /api/stream/1/mpeg",
			"stop /api/stream/1/mpeg",
			"release /api/stream/1/mpeg",
			"create /api/stream/2/mpeg",
		}
		if got := backend.Log(); !reflect.DeepEqual(got, want) {
			t.Errorf("backend log = %v, want %v", got, want)
		}
		if ref, _ := c.Track(); ref.ID != "2" {
			t.Errorf("expected track 2, got %+v", ref)
		}
		if backend.sounds[1].Released() {
			t.Error("second sound must stay active")
		}
	})

	t.Run("Pause And Resume", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		c.Pause()
		c.Resume()
		if c.State() != Idle {
			t.Fatalf("pause and resume from idle must be no-ops, state %v", c.State())
		}

		c.Play(ctx, models.TrackRef{ID: "1"})
		waitState(t, c, Playing)

		c.Resume()
		c.Pause()
		c.Pause()
		if c.State() != Paused {
			t.Fatalf("expected paused, got %v", c.State())
		}
		c.Resume()
		if c.State() != Playing {
			t.Fatalf("expected playing, got %v", c.State())
		}

		log := backend.Log()
		if hasPrefix(log, "pause ") != 1 || hasPrefix(log, "resume ") != 1 {
			t.Errorf("expected one pause and one resume, got %v", log)
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		src := &fakeSource{randoms: []string{"http://musik/api/stream/9"}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		if err := c.TogglePlayPause(ctx); err != nil {
			t.Fatalf("TogglePlayPause() error = %v", err)
		}
		waitState(t, c, Playing)
		if src.RandomCalls() != 1 {
			t.Errorf("toggle from idle should resolve a random track, got %d calls", src.RandomCalls())
		}

		c.TogglePlayPause(ctx)
		if c.State() != Paused {
			t.Errorf("expected paused, got %v", c.State())
		}
		c.TogglePlayPause(ctx)
		if c.State() != Playing {
			t.Errorf("expected playing, got %v", c.State())
		}
	})

	t.Run("Stop", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		c.Stop()
		c.Play(ctx, models.TrackRef{ID: "1"})
		waitState(t, c, Playing)
		c.Stop()

		if c.State() != Idle {
			t.Errorf("expected idle, got %v", c.State())
		}
		if !backend.Last().Released() {
			t.Error("expected sound to be released")
		}
	})

	t.Run("Stale Finish After Stop", func(t *testing.T) {
		src := &fakeSource{randoms: []string{"http://musik/api/stream/1", "http://musik/api/stream/2"}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{Shuffle: true})

		c.PlayRandom(ctx)
		waitState(t, c, Playing)
		stale := backend.Last()
		var staleHandle *Handle
		c.mu.Lock()
		staleHandle = c.handle
		c.mu.Unlock()

		c.Stop()
		stale.Finish()
		c.onEvent(staleHandle, Event{Kind: EventFinished})
		time.Sleep(20 * time.Millisecond)

		if src.RandomCalls() != 1 {
			t.Errorf("stale finish must not chain, random calls = %d", src.RandomCalls())
		}
		if backend.Created() != 1 || c.State() != Idle {
			t.Errorf("expected one sound and idle, got %d sounds in %v", backend.Created(), c.State())
		}
	})

	t.Run("Stale Finish After Replace", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}, randoms: []string{"http://musik/r"}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{Shuffle: true})

		c.Play(ctx, models.TrackRef{ID: "1"})
		c.mu.Lock()
		first := c.handle
		c.mu.Unlock()
		c.Play(ctx, models.TrackRef{ID: "2"})
		waitState(t, c, Playing)

		c.onEvent(first, Event{Kind: EventFinished})
		if src.RandomCalls() != 0 || c.State() != Playing {
			t.Errorf("finish from a replaced sound changed state: %v, %d random calls", c.State(), src.RandomCalls())
		}
	})

	t.Run("Chaining", func(t *testing.T) {
		uris := []string{"http://musik/api/stream/1", "http://musik/api/stream/2", "http://musik/api/stream/3"}
		src := &fakeSource{randoms: uris}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{Shuffle: true})

		c.PlayRandom(ctx)
		waitState(t, c, Playing)

		for n := 1; n < 3; n++ {
			backend.Last().Finish()
			tu.Eventually(t, waitFor, func() bool {
				return backend.Created() == n+1 && c.State() == Playing
			}, "next track playing")
		}

		want := []string{
			"create " + uris[0], "stop " + uris[0], "release " + uris[0],
			"create " + uris[1], "stop " + uris[1], "release " + uris[1],
			"create " + uris[2],
		}
		if got := backend.Log(); !reflect.DeepEqual(got, want) {
			t.Errorf("backend log = %v, want %v", got, want)
		}
	})

	t.Run("Finish Without Shuffle", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		c.Play(ctx, models.TrackRef{ID: "1"})
		waitState(t, c, Playing)
		backend.Last().Finish()
		waitState(t, c, Idle)

		if !backend.Last().Released() || src.RandomCalls() != 0 {
			t.Error("expected teardown without chaining")
		}
	})

	t.Run("Resolution Failure", func(t *testing.T) {
		src := &fakeSource{randErr: errors.New("503")}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{Shuffle: true})

		err := c.PlayRandom(ctx)
		if !errors.Is(err, shared.ErrPlaybackResolutionFailed) {
			t.Fatalf("expected ErrPlaybackResolutionFailed, got %v", err)
		}
		if c.State() != Idle || backend.Created() != 0 {
			t.Errorf("expected idle with no sound, got %v", c.State())
		}

		var reported error
		for _, u := range drain(c) {
			if u.Kind == UpdateError {
				reported = u.Err
			}
		}
		if !errors.Is(reported, shared.ErrPlaybackResolutionFailed) {
			t.Errorf("expected error update, got %v", reported)
		}
	})

	t.Run("Chain Resolution Failure", func(t *testing.T) {
		src := &fakeSource{randoms: []string{"http://musik/r"}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{Shuffle: true})

		c.PlayRandom(ctx)
		waitState(t, c, Playing)

		src.mu.Lock()
		src.randErr = errors.New("gone")
		src.mu.Unlock()
		backend.Last().Finish()

		tu.Eventually(t, waitFor, func() bool { return src.RandomCalls() == 2 && c.State() == Idle }, "chain failed to idle")
		time.Sleep(20 * time.Millisecond)
		if src.RandomCalls() != 2 {
			t.Errorf("failed resolution must not retry, random calls = %d", src.RandomCalls())
		}
	})

	t.Run("No Compatible Format", func(t *testing.T) {
		src := &fakeSource{encoders: []string{"audio/aac"}}
		backend := newFakeBackend("audio/flac")
		c := newTestController(t, src, backend, Options{})

		err := c.Play(ctx, models.TrackRef{ID: "1", MimeType: "audio/alac"})
		if !errors.Is(err, shared.ErrNoCompatibleFormat) {
			t.Fatalf("expected ErrNoCompatibleFormat, got %v", err)
		}
		if c.State() != Idle {
			t.Errorf("expected idle, got %v", c.State())
		}
	})

	t.Run("Skip", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}, randoms: []string{"http://musik/r1", "http://musik/r2"}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		c.Play(ctx, models.TrackRef{ID: "1"})
		waitState(t, c, Playing)

		if err := c.Skip(ctx); err != nil {
			t.Fatalf("Skip() error = %v", err)
		}
		if backend.Created() != 1 || c.State() != Playing {
			t.Fatalf("skip without shuffle must do nothing")
		}

		c.SetShuffle(true)
		if err := c.Skip(ctx); err != nil {
			t.Fatalf("Skip() error = %v", err)
		}
		waitState(t, c, Playing)
		if ref, _ := c.Track(); ref.StreamURI != "http://musik/r1" {
			t.Errorf("expected random track, got %+v", ref)
		}
	})

	t.Run("Stop During Resolution", func(t *testing.T) {
		gate := make(chan struct{})
		src := &fakeSource{randoms: []string{"http://musik/r"}, randomGate: gate}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		errc := make(chan error, 1)
		go func() { errc <- c.PlayRandom(ctx) }()
		waitState(t, c, Loading)

		c.Stop()
		close(gate)

		if err := <-errc; err != nil {
			t.Fatalf("PlayRandom() error = %v", err)
		}
		if backend.Created() != 0 || c.State() != Idle {
			t.Errorf("abandoned attempt loaded a sound: %d sounds, %v", backend.Created(), c.State())
		}
	})

	t.Run("Progress", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{ProgressInterval: 5 * time.Millisecond})

		c.Play(ctx, models.TrackRef{ID: "1"})
		waitState(t, c, Playing)
		backend.Last().SetSample(Sample{Position: time.Second, Duration: 4 * time.Second})

		var got Progress
		tu.Eventually(t, waitFor, func() bool {
			for _, u := range drain(c) {
				if u.Kind == UpdateProgress && u.Progress.Total > 0 {
					got = u.Progress
					return true
				}
			}
			return false
		}, "progress update")
		if got.Fraction() != 0.25 {
			t.Errorf("unexpected progress %+v", got)
		}

		c.Pause()
		drain(c)
		time.Sleep(30 * time.Millisecond)
		for _, u := range drain(c) {
			if u.Kind == UpdateProgress {
				t.Fatal("no progress expected while paused")
			}
		}
	})

	t.Run("Backend Failure", func(t *testing.T) {
		src := &fakeSource{encoders: []string{MimeMP3}}
		backend := newFakeBackend(MimeMP3)
		c := newTestController(t, src, backend, Options{})

		c.Play(ctx, models.TrackRef{ID: "1"})
		waitState(t, c, Playing)
		backend.Last().emit(Event{Kind: EventFailed, Err: errors.New("decoder error")})
		waitState(t, c, Idle)

		if !backend.Last().Released() {
			t.Error("expected failed sound to be released")
		}
	})

	t.Run("Closed", func(t *testing.T) {
		c := NewController(&fakeSource{}, newFakeBackend(), Options{}, quietLogger())
		c.Close()
		c.Close()
		if err := c.Play(ctx, models.TrackRef{ID: "1"}); !errors.Is(err, ErrControllerClosed) {
			t.Errorf("expected ErrControllerClosed, got %v", err)
		}
		if _, ok := <-c.Updates(); ok {
			t.Error("expected updates to be closed")
		}
	})
}

func TestControllerEndToEnd(t *testing.T) {
	ctx := context.Background()

	fake := tu.NewFakeMusik(t)
	fake.AddUser("alice", "hunter2", "tok")
	fake.SetEncoders(MimeVorbis, MimeMP3)
	fake.SetStream("/api/stream/7/mpeg", MimeMP3, []byte("ID3"))

	srv := services.NewMusikService(fake.URL, nil)
	if _, err := srv.Login(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	backend := newFakeBackend(MimeMP3)
	backend.opener = srv
	backend.opened = make(chan error, 1)
	c := newTestController(t, srv, backend, Options{})

	if err := c.Play(ctx, models.TrackRef{ID: "7", MimeType: "audio/x-ms-wma"}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if err := <-backend.opened; err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	if got := backend.Last().spec; got.MimeType != MimeMP3 || got.URI != "/api/stream/7/mpeg" {
		t.Errorf("unexpected sound spec %+v", got)
	}
	if fake.Count(http.MethodGet+" /api/stream/7/mpeg") != 1 {
		t.Errorf("expected one stream request, got %v", fake.Requests())
	}
}
