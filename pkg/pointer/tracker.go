// Package pointer tracks the latest pointer position in normalized [-1, 1] space, throttled to
// the display refresh rate and switched off while the host prefers reduced motion.
package pointer

import (
	"errors"
	"sync"
	"time"
)

// DefaultInterval is one frame at 60Hz.
const DefaultInterval = time.Second / 60

var (
	ErrAlreadyStarted = errors.New("pointer: tracker already started")
	ErrClosed         = errors.New("pointer: tracker closed")
)

// Event is a raw pointer position in viewport pixels.
type Event struct {
	X, Y float64
}

// Sample is the latest published pointer state.
type Sample struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	NormalizedX   float64 `json:"normalized_x"`
	NormalizedY   float64 `json:"normalized_y"`
	ReducedMotion bool    `json:"reduced_motion"`
}

// PointerSource delivers raw move events until the returned detach func is called. Attach must
// not invoke handler synchronously.
type PointerSource interface {
	Attach(handler func(Event)) (detach func())
}

// FrameID identifies a requested frame callback.
type FrameID uint64

// FrameScheduler runs callbacks on the next display refresh.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// MotionPreference reports whether reduced motion is preferred and announces changes.
type MotionPreference interface {
	Reduced() bool
	OnChange(handler func(reduced bool)) (unsubscribe func())
}

// Viewport reports the current viewport dimensions in pixels.
type Viewport interface {
	Size() (width, height float64)
}

type Config struct {
	Source    PointerSource
	Scheduler FrameScheduler
	// Motion may be nil, in which case motion is never reduced.
	Motion MotionPreference
	// Viewport may be nil, in which case every coordinate normalizes to 0.
	Viewport Viewport
	Now      func() time.Time
	Interval time.Duration
}

type Tracker struct {
	cfg Config

	mu        sync.Mutex
	sample    Sample
	observers map[int]func(Sample)
	nextObsID int

	detachSource func()
	unsubMotion  func()

	pending    FrameID
	hasPending bool
	frameSeq   uint64

	lastAccepted time.Time
	hasAccepted  bool

	started bool
	closed  bool
}

func NewTracker(cfg Config) (*Tracker, error) {
	if cfg.Source == nil {
		return nil, errors.New("pointer: source is required")
	}
	if cfg.Scheduler == nil {
		return nil, errors.New("pointer: scheduler is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	return &Tracker{
		cfg:       cfg,
		observers: make(map[int]func(Sample)),
	}, nil
}

// Start resets the sample and begins listening. Pointer events are only attached while motion
// is not reduced.
func (t *Tracker) Start() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true

	reduced := t.cfg.Motion != nil && t.cfg.Motion.Reduced()
	t.sample = Sample{ReducedMotion: reduced}
	if !reduced {
		t.detachSource = t.cfg.Source.Attach(t.handleMove)
	}
	t.mu.Unlock()

	// Subscribed outside the lock so a host that fires synchronously cannot deadlock.
	if t.cfg.Motion != nil {
		unsub := t.cfg.Motion.OnChange(t.setReduced)
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			unsub()
			return nil
		}
		t.unsubMotion = unsub
		t.mu.Unlock()
	}

	t.publish()
	return nil
}

// Sample returns the latest published sample.
func (t *Tracker) Sample() Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sample
}

// Subscribe registers fn for every published sample.
func (t *Tracker) Subscribe(fn func(Sample)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextObsID
	t.nextObsID++
	t.observers[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.observers, id)
		t.mu.Unlock()
	}
}

// Close cancels any pending frame and detaches from the source and the motion preference.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.cancelPendingLocked()
	detach, unsub := t.detachSource, t.unsubMotion
	t.detachSource, t.unsubMotion = nil, nil
	t.mu.Unlock()

	if detach != nil {
		detach()
	}
	if unsub != nil {
		unsub()
	}
}

func (t *Tracker) handleMove(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.sample.ReducedMotion {
		return
	}

	now := t.cfg.Now()
	if t.hasAccepted && now.Sub(t.lastAccepted) < t.cfg.Interval {
		return
	}
	t.lastAccepted = now
	t.hasAccepted = true

	t.cancelPendingLocked()
	t.frameSeq++
	seq := t.frameSeq
	t.pending = t.cfg.Scheduler.RequestFrame(func() { t.runFrame(seq, ev) })
	t.hasPending = true
}

func (t *Tracker) runFrame(seq uint64, ev Event) {
	t.mu.Lock()
	if t.closed || !t.hasPending || seq != t.frameSeq {
		t.mu.Unlock()
		return
	}
	t.hasPending = false

	var width, height float64
	if t.cfg.Viewport != nil {
		width, height = t.cfg.Viewport.Size()
	}
	t.sample = Sample{
		X:             ev.X,
		Y:             ev.Y,
		NormalizedX:   Normalize(ev.X, width),
		NormalizedY:   Normalize(ev.Y, height),
		ReducedMotion: t.sample.ReducedMotion,
	}
	t.mu.Unlock()

	t.publish()
}

func (t *Tracker) setReduced(reduced bool) {
	t.mu.Lock()
	if t.closed || !t.started || reduced == t.sample.ReducedMotion {
		t.mu.Unlock()
		return
	}

	var detach func()
	if reduced {
		t.cancelPendingLocked()
		detach = t.detachSource
		t.detachSource = nil
		t.sample = Sample{ReducedMotion: true}
	} else {
		t.sample.ReducedMotion = false
		t.detachSource = t.cfg.Source.Attach(t.handleMove)
	}
	t.mu.Unlock()

	if detach != nil {
		detach()
	}
	t.publish()
}

func (t *Tracker) cancelPendingLocked() {
	if !t.hasPending {
		return
	}
	t.cfg.Scheduler.CancelFrame(t.pending)
	t.hasPending = false
}

func (t *Tracker) publish() {
	t.mu.Lock()
	sample := t.sample
	observers := make([]func(Sample), 0, len(t.observers))
	for _, fn := range t.observers {
		observers = append(observers, fn)
	}
	t.mu.Unlock()

	for _, fn := range observers {
		fn(sample)
	}
}

// Normalize maps raw in [0, dimension] onto [-1, 1]. A non-positive dimension yields 0.
func Normalize(raw, dimension float64) float64 {
	if dimension <= 0 {
		return 0
	}
	n := 2*(raw/dimension) - 1
	switch {
	case n < -1:
		return -1
	case n > 1:
		return 1
	}
	return n
}
