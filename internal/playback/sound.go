package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// NowPlayingID is the identifier of the single sound slot.
const NowPlayingID = "nowplaying"

// EventKind identifies a notification raised by an audio backend.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventStarted
	EventPaused
	EventResumed
	EventStopped
	EventFinished
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is raised by a [Sound] through the emit function it was created with.
type Event struct {
	Kind EventKind
	Err  error
}

// Sample is a best-effort reading of a sound's position.
//
// Any field may be zero when the backend does not know it yet.
type Sample struct {
	Position         time.Duration
	Duration         time.Duration
	DurationEstimate time.Duration
	BytesLoaded      int64
	BytesTotal       int64
}

// SoundSpec describes the stream a [Backend] should create a sound for.
type SoundSpec struct {
	ID       string
	URI      string
	MimeType string
	AutoPlay bool
}

// Sound is one loaded or loading audio stream.
type Sound interface {
	Play()
	Pause()
	Resume()
	Stop()
	Release()
	Sample() Sample
}

// Backend creates sounds on an audio output.
//
// Create must not block on the stream itself. Loading happens in the
// background and is reported through emit, in the order things happen.
type Backend interface {
	CanDecode(mimeType string) bool
	Create(ctx context.Context, spec SoundSpec, emit func(Event)) (Sound, error)
}

// Handle identifies one load. It is the generation token callers compare
// against [Manager.IsCurrent] before acting on an event.
type Handle struct {
	gen  uint64
	spec SoundSpec
}

func (h *Handle) Generation() uint64 { return h.gen }
func (h *Handle) Spec() SoundSpec    { return h.spec }

type slot struct {
	handle *Handle
	sound  Sound
	queue  *eventQueue
}

// Manager owns at most one [Sound] at a time.
type Manager struct {
	backend Backend
	logger  *log.Logger

	mu      sync.Mutex
	gen     uint64
	current *slot
}

// NewManager creates a [Manager] backed by backend.
func NewManager(backend Backend, logger *log.Logger) *Manager {
	return &Manager{backend: backend, logger: logger}
}

// Load releases the current sound, if any, then creates a new one for spec.
//
// listener receives the new sound's events in order on a dedicated goroutine.
// Events raised after the sound is released are dropped.
func (m *Manager) Load(ctx context.Context, spec SoundSpec, listener func(*Handle, Event)) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()

	if spec.ID == "" {
		spec.ID = NowPlayingID
	}

	m.gen++
	h := &Handle{gen: m.gen, spec: spec}
	q := newEventQueue(func(ev Event) { listener(h, ev) })

	sound, err := m.backend.Create(ctx, spec, q.push)
	if err != nil {
		q.close()
		return nil, fmt.Errorf("failed to create sound for %s: %w", spec.URI, err)
	}

	m.current = &slot{handle: h, sound: sound, queue: q}
	m.logger.Debug("sound loaded", "generation", h.gen, "uri", spec.URI, "mime", spec.MimeType)
	return h, nil
}

// ReleaseCurrent stops, releases and forgets the current sound.
//
// It is a no-op when nothing is loaded.
func (m *Manager) ReleaseCurrent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Manager) releaseLocked() {
	if m.current == nil {
		return
	}

	cur := m.current
	cur.queue.close()
	cur.sound.Stop()
	cur.sound.Release()
	m.current = nil
	m.logger.Debug("sound released", "generation", cur.handle.gen)
}

// IsCurrent reports whether h is the active load.
func (m *Manager) IsCurrent(h *Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return h != nil && m.current != nil && m.current.handle == h
}

// Active reports whether a sound is loaded.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

func (m *Manager) Pause()  { m.with(Sound.Pause) }
func (m *Manager) Resume() { m.with(Sound.Resume) }
func (m *Manager) Play()   { m.with(Sound.Play) }

// Sample reads the current sound's position. ok is false when nothing is loaded.
func (m *Manager) Sample() (s Sample, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Sample{}, false
	}
	return m.current.sound.Sample(), true
}

func (m *Manager) with(fn func(Sound)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		fn(m.current.sound)
	}
}

// eventQueue delivers events in order without ever blocking the producer.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	closed  bool
	notify  chan struct{}
	deliver func(Event)
}

func newEventQueue(deliver func(Event)) *eventQueue {
	q := &eventQueue{notify: make(chan struct{}, 1), deliver: deliver}
	go q.run()
	return q
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, ev)
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.pending = nil
	close(q.notify)
}

func (q *eventQueue) next() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.pending) == 0 {
		return Event{}, false
	}
	ev := q.pending[0]
	q.pending = q.pending[1:]
	return ev, true
}

func (q *eventQueue) run() {
	for range q.notify {
		for {
			ev, ok := q.next()
			if !ok {
				break
			}
			q.deliver(ev)
		}
	}
}
