package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
	"github.com/desertthunder/musik/internal/tasks"
)

// DefaultProgressInterval is how often a playing sound is sampled.
const DefaultProgressInterval = 500 * time.Millisecond

const defaultUpdateBuffer = 64

// ErrControllerClosed is returned by operations on a closed [Controller].
var ErrControllerClosed = errors.New("playback controller closed")

// State is a state of the playback machine.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source is the part of the REST layer the controller talks to.
type Source interface {
	EncoderLister
	RandomTrack(ctx context.Context) (models.RandomTrack, error)
	StreamPath(trackID, suffix string) string
}

// UpdateKind identifies what an [Update] carries.
type UpdateKind int

const (
	UpdateState UpdateKind = iota
	UpdateTrack
	UpdateProgress
	UpdateError
)

// Update is published to UI collaborators on [Controller.Updates].
type Update struct {
	Kind     UpdateKind
	State    State
	Track    models.TrackRef
	Progress Progress
	Err      error
}

// Options configures a [Controller].
type Options struct {
	Shuffle          bool
	ProgressInterval time.Duration
	UpdateBuffer     int
}

// Controller is the playback state machine.
//
// Every operation is safe to call from any goroutine. Backend events are
// bound to the load that produced them; events from a sound that has since
// been stopped or replaced are dropped.
type Controller struct {
	source     Source
	negotiator *Negotiator
	sounds     *Manager
	canDecode  DecodeFunc
	logger     *log.Logger
	interval   time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	state      State
	shuffle    bool
	track      models.TrackRef
	handle     *Handle
	epoch      uint64
	sampler    *tasks.Schedule
	samplerGen uint64
	updates    chan Update
	closed     bool
}

// NewController wires a controller to the REST source and an audio backend.
func NewController(source Source, backend Backend, opts Options, logger *log.Logger) *Controller {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.UpdateBuffer <= 0 {
		opts.UpdateBuffer = defaultUpdateBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:     source,
		negotiator: NewNegotiator(source, backend.CanDecode),
		sounds:     NewManager(backend, logger),
		canDecode:  backend.CanDecode,
		logger:     logger,
		interval:   opts.ProgressInterval,
		baseCtx:    ctx,
		cancel:     cancel,
		shuffle:    opts.Shuffle,
		updates:    make(chan Update, opts.UpdateBuffer),
	}
}

// Updates returns the controller's event stream. Updates are dropped when
// the channel is full. The channel is closed by [Controller.Close].
func (c *Controller) Updates() <-chan Update { return c.updates }

// Negotiator exposes the controller's capability negotiator.
func (c *Controller) Negotiator() *Negotiator { return c.negotiator }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Track returns the reference of the track loaded or loading, if any.
func (c *Controller) Track() (models.TrackRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track, c.state != Idle
}

// Shuffle reports whether finishing a track starts a random one.
func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffle
}

// SetShuffle turns autoplay chaining on or off.
func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = on
	c.logger.Debug("shuffle changed", "shuffle", on)
}

// Play tears down whatever is loaded and starts ref.
//
// It returns once the sound has been created; the move to [Playing] happens
// when the backend reports that playback started.
func (c *Controller) Play(ctx context.Context, ref models.TrackRef) error {
	return c.start(ctx, func(context.Context) (models.TrackRef, error) { return ref, nil })
}

// PlayRandom plays a track chosen by the server.
func (c *Controller) PlayRandom(ctx context.Context) error {
	return c.start(ctx, c.nextRandomTrack)
}

// Pause moves [Playing] to [Paused]. It does nothing in any other state.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// Resume moves [Paused] to [Playing]. It does nothing in any other state.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
}

// TogglePlayPause pauses while playing, resumes while paused, and plays a
// random track while idle. It does nothing while a track is loading.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Playing:
		c.pauseLocked()
	case Paused:
		c.resumeLocked()
	case Idle:
		c.mu.Unlock()
		return c.PlayRandom(ctx)
	}
	c.mu.Unlock()
	return nil
}

// Stop tears down the current sound and returns to [Idle].
//
// A pending track resolution is abandoned and a finish that arrives after
// Stop does not start another track.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		return
	}
	c.epoch++
	c.teardownLocked()
	c.setStateLocked(Idle)
}

// Skip stops the current track and plays a random one. Without shuffle it does nothing.
func (c *Controller) Skip(ctx context.Context) error {
	if !c.Shuffle() {
		c.logger.Debug("skip ignored, shuffle is off")
		return nil
	}
	c.Stop()
	return c.PlayRandom(ctx)
}

// Close stops playback and closes the update stream.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.epoch++
	c.teardownLocked()
	c.state = Idle
	c.closed = true
	c.cancel()
	close(c.updates)
}

func (c *Controller) nextRandomTrack(ctx context.Context) (models.TrackRef, error) {
	track, err := c.source.RandomTrack(ctx)
	if err != nil {
		return models.TrackRef{}, fmt.Errorf("%w: %w", shared.ErrPlaybackResolutionFailed, err)
	}
	return track.Ref(), nil
}

// start runs one play attempt.
func (c *Controller) start(ctx context.Context, next func(context.Context) (models.TrackRef, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	return c.complete(ctx, epoch, next)
}

// beginLocked tears down the current sound and enters [Loading]. The returned
// epoch identifies the attempt.
func (c *Controller) beginLocked() uint64 {
	c.epoch++
	c.teardownLocked()
	c.track = models.TrackRef{}
	c.setStateLocked(Loading)
	return c.epoch
}

// complete resolves and loads the track for an attempt begun with beginLocked.
// If anything else starts or stops playback while next or resolve is waiting
// on the network, the attempt is dropped.
func (c *Controller) complete(ctx context.Context, epoch uint64, next func(context.Context) (models.TrackRef, error)) error {
	ref, err := next(ctx)
	var spec SoundSpec
	if err == nil {
		spec, err = c.resolve(ctx, ref)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug("play attempt superseded", "track", ref)
		return nil
	}
	if err != nil {
		c.track = ref
		c.failLocked(err)
		return err
	}

	h, err := c.sounds.Load(c.baseCtx, spec, c.onEvent)
	if err != nil {
		c.track = ref
		c.failLocked(err)
		return err
	}

	c.handle = h
	c.track = ref
	c.logger.Info("loading track", "track", ref, "uri", spec.URI, "mime", spec.MimeType)
	c.publishLocked(Update{Kind: UpdateTrack, State: c.state, Track: ref})
	return nil
}

// resolve turns a reference into something a backend can load.
func (c *Controller) resolve(ctx context.Context, ref models.TrackRef) (SoundSpec, error) {
	spec := SoundSpec{ID: NowPlayingID, AutoPlay: true}

	if ref.Resolved() {
		spec.URI = ref.StreamURI
		spec.MimeType = ref.MimeType
		return spec, nil
	}
	if ref.ID == "" {
		return spec, fmt.Errorf("%w: track reference has neither id nor stream uri", shared.ErrInvalidInput)
	}

	var caps Capabilities
	if native := NormalizeMime(ref.MimeType); native == "" || !c.canDecode(native) {
		var err error
		if caps, err = c.negotiator.Capabilities(ctx); err != nil {
			return spec, err
		}
	}

	mimeType, err := SelectFormat(ref.MimeType, c.canDecode, caps)
	if err != nil {
		return spec, err
	}

	spec.MimeType = mimeType
	spec.URI = c.source.StreamPath(ref.ID, FormatSuffix(mimeType))
	return spec, nil
}

func (c *Controller) onEvent(h *Handle, ev Event) {
	c.mu.Lock()

	if c.closed || c.handle != h || !c.sounds.IsCurrent(h) {
		c.mu.Unlock()
		c.logger.Debug("dropping stale sound event", "generation", h.Generation(), "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case EventStarted, EventResumed:
		if c.state == Loading || c.state == Paused {
			c.setStateLocked(Playing)
			c.startSamplerLocked()
		}
	case EventPaused:
		if c.state == Playing {
			c.stopSamplerLocked()
			c.setStateLocked(Paused)
		}
	case EventStopped:
		c.epoch++
		c.teardownLocked()
		c.setStateLocked(Idle)
	case EventFailed:
		c.epoch++
		c.failLocked(fmt.Errorf("playback of %s failed: %w", c.track, ev.Err))
	case EventFinished:
		if c.shuffle {
			epoch := c.beginLocked()
			c.mu.Unlock()
			c.logger.Info("track finished, playing next")
			_ = c.complete(c.baseCtx, epoch, c.nextRandomTrack)
			return
		}
		c.epoch++
		c.teardownLocked()
		c.logger.Info("track finished")
		c.setStateLocked(Idle)
	}

	c.mu.Unlock()
}

func (c *Controller) pauseLocked() {
	if c.state != Playing {
		return
	}
	c.sounds.Pause()
	c.stopSamplerLocked()
	c.setStateLocked(Paused)
}

func (c *Controller) resumeLocked() {
	if c.state != Paused {
		return
	}
	c.sounds.Resume()
	c.setStateLocked(Playing)
	c.startSamplerLocked()
}

func (c *Controller) teardownLocked() {
	c.stopSamplerLocked()
	c.sounds.ReleaseCurrent()
	c.handle = nil
}

func (c *Controller) failLocked(err error) {
	c.logger.Error("playback failed", "error", err)
	c.teardownLocked()
	c.setStateLocked(Idle)
	c.publishLocked(Update{Kind: UpdateError, State: Idle, Track: c.track, Err: err})
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("state change", "from", c.state, "to", s)
	c.state = s
	c.publishLocked(Update{Kind: UpdateState, State: s, Track: c.track})
}

func (c *Controller) publishLocked(u Update) {
	if c.closed {
		return
	}
	select {
	case c.updates <- u:
	default:
	}
}

func (c *Controller) startSamplerLocked() {
	if c.sampler != nil {
		return
	}
	c.samplerGen++
	gen := c.samplerGen
	c.sampler = tasks.Every(c.baseCtx, c.interval, func(context.Context) bool {
		return c.sampleTick(gen)
	})
}

func (c *Controller) stopSamplerLocked() {
	if c.sampler == nil {
		return
	}
	c.sampler.Stop()
	c.sampler = nil
	c.samplerGen++
}

func (c *Controller) sampleTick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.samplerGen || c.state != Playing {
		return false
	}
	sample, ok := c.sounds.Sample()
	if !ok {
		return false
	}
	c.publishLocked(Update{Kind: UpdateProgress, State: c.state, Track: c.track, Progress: ProgressFrom(sample)})
	return true
}
