// Package app implements the mode-selection flow: choosing image, video or
// webcam detection, running the annotation loop for it, and returning to
// the selection screen on completion, cancellation or failure.
package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-facedetect/internal/log"
	"github.com/teslashibe/go-facedetect/pkg/detection"
	"github.com/teslashibe/go-facedetect/pkg/display"
	"github.com/teslashibe/go-facedetect/pkg/pipeline"
	"go.uber.org/multierr"
)

// runStats is written by the loop goroutine and read by Status.
type runStats struct {
	frames atomic.Int64
	faces  atomic.Int64
}

// Controller owns the single active frame source.
// All methods are safe for concurrent use; they are serialized internally.
type Controller struct {
	detector detection.Detector
	surface  display.Surface
	notifier Notifier
	opener   Opener
	opts     pipeline.Options

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	status Status
	loop   *pipeline.Loop
	stats  *runStats
	closed bool
}

// NewController creates a controller on the selection screen.
// base supplies the interval and display size for every loop; Repeat and
// the model are set per mode.
func NewController(det detection.Detector, surface display.Surface, notifier Notifier, opener Opener, base pipeline.Options) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Event) {})
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		detector: det,
		surface:  surface,
		notifier: notifier,
		opener:   opener,
		opts:     base,
		ctx:      ctx,
		cancel:   cancel,
		status:   Status{State: StateSelection},
		stats:    &runStats{},
	}
}

// Start runs a mode. Any running loop is stopped first.
//
// For image and video an empty path means the picker was cancelled and the
// controller returns to selection without opening anything. Image mode runs
// its single frame before returning; video and webcam return once the loop
// is ticking. Failures are reported to the user, reset the controller to
// selection, and are also returned.
func (c *Controller) Start(ctx context.Context, mode Mode, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	c.stopLocked()

	if mode.NeedsFile() && path == "" {
		log.Info("file picker cancelled", "mode", mode)
		c.resetLocked()
		return nil
	}

	if f, ok := mode.Filter(); ok {
		if err := f.Check(path); err != nil {
			c.failLocked(mode, err)
			return err
		}
	}

	src, err := c.opener.Open(mode, path)
	if err != nil {
		c.failLocked(mode, err)
		return err
	}

	session := uuid.NewString()
	stats := &runStats{}

	opts := c.opts
	opts.Apply(
		pipeline.WithRepeat(mode.Repeat()),
		pipeline.WithModel(mode.Model()),
		pipeline.WithFrameCallback(func(n int, dets []detection.Detection) {
			stats.frames.Store(int64(n))
			stats.faces.Store(int64(len(dets)))
		}),
	)
	opts.Detect.MinConfidence = detection.DefaultMinConfidence

	loop := pipeline.New(src, c.detector, c.surface, opts)

	c.stats = stats
	c.status = Status{
		State:     StateRunning,
		Mode:      mode,
		Model:     mode.Model().String(),
		Session:   session,
		Source:    path,
		StartedAt: time.Now(),
	}
	logger := log.With("mode", mode, "session", session)

	if !mode.Repeat() {
		res := loop.Run(ctx)
		switch res.Reason {
		case pipeline.Completed:
			c.status.State = StateShowing
			c.notifyStateLocked()
			logger.Info("image annotated", "faces", stats.faces.Load())
			return nil
		case pipeline.Failed:
			c.failLocked(mode, res.Err)
			return res.Err
		case pipeline.Stopped:
			c.resetLocked()
			return ctx.Err()
		default:
			c.failLocked(mode, ErrNoFrame)
			return ErrNoFrame
		}
	}

	if err := loop.Start(c.ctx); err != nil {
		c.failLocked(mode, err)
		return err
	}
	c.loop = loop
	go c.watch(session, mode, loop)

	logger.Info("detection loop started", "model", mode.Model().String(), "source", path)
	c.notifyStateLocked()
	return nil
}

// Back stops any running loop, releases its source and returns to the
// selection screen.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.resetLocked()
}

// Status returns a snapshot of the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.status
	st.Frames = c.stats.frames.Load()
	st.Faces = c.stats.faces.Load()
	return st
}

// Close stops any running loop and closes the detector.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.stopLocked()
	c.cancel()
	c.status = Status{State: StateSelection}

	var err error
	if c.detector != nil {
		err = multierr.Append(err, c.detector.Close())
	}
	return err
}

// watch returns to selection when a repeating loop ends on its own.
func (c *Controller) watch(session string, mode Mode, loop *pipeline.Loop) {
	<-loop.Done()
	res := loop.Result()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Back or a newer Start already handled this session.
	if c.status.Session != session {
		return
	}
	c.loop = nil

	switch res.Reason {
	case pipeline.Failed:
		c.failLocked(mode, res.Err)
	default:
		log.Info("detection loop finished", "mode", mode, "session", session,
			"reason", res.Reason.String(), "frames", res.Frames)
		c.resetLocked()
	}
}

// stopLocked blocks until the running loop has released its source.
func (c *Controller) stopLocked() {
	if c.loop == nil {
		return
	}
	loop := c.loop
	c.loop = nil
	loop.Stop()
	log.Info("detection loop stopped", "mode", c.status.Mode, "session", c.status.Session,
		"frames", loop.Result().Frames)
}

func (c *Controller) resetLocked() {
	lastErr := c.status.LastError
	c.status = Status{State: StateSelection, LastError: lastErr}
	c.stats = &runStats{}
	c.surface.Clear()
	c.notifyStateLocked()
}

func (c *Controller) failLocked(mode Mode, err error) {
	msg := mode.FailureMessage(err)
	log.Error("processing failed", "mode", mode, "error", err)

	c.status.LastError = msg
	c.notifier.Notify(Event{
		Type:    EventError,
		Mode:    mode,
		Session: c.status.Session,
		Title:   "Error",
		Message: msg,
		Time:    time.Now(),
	})
	c.resetLocked()
}

func (c *Controller) notifyStateLocked() {
	c.notifier.Notify(Event{
		Type:    EventState,
		State:   c.status.State,
		Mode:    c.status.Mode,
		Session: c.status.Session,
		Time:    time.Now(),
	})
}
