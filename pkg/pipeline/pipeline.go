// Package pipeline runs the frame annotation loop: read a frame, detect
// faces, draw them, and render the result, once or repeatedly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-facedetect/internal/log"
	"github.com/teslashibe/go-facedetect/pkg/annotate"
	"github.com/teslashibe/go-facedetect/pkg/debug"
	"github.com/teslashibe/go-facedetect/pkg/detection"
	"github.com/teslashibe/go-facedetect/pkg/display"
	"github.com/teslashibe/go-facedetect/pkg/source"
	"gocv.io/x/gocv"
)

// ErrAlreadyStarted is returned when Run or Start is called twice.
var ErrAlreadyStarted = errors.New("pipeline: already started")

// Reason describes why a loop finished.
type Reason int

const (
	// Completed means a single-shot loop rendered its frame.
	Completed Reason = iota
	// EndOfStream means the source ran out of frames.
	EndOfStream
	// Stopped means the loop was cancelled.
	Stopped
	// Failed means reading, detection or rendering returned an error.
	Failed
)

func (r Reason) String() string {
	switch r {
	case Completed:
		return "completed"
	case EndOfStream:
		return "end-of-stream"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Result is the outcome of a finished loop.
type Result struct {
	Reason Reason
	Frames int   // Frames rendered
	Err    error // Set when Reason is Failed
}

// Loop drives one frame source through detection to a display surface.
// The loop owns the source and closes it before reporting completion.
type Loop struct {
	src      source.Source
	detector detection.Detector
	surface  display.Surface
	opts     Options

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	result  Result
}

// New creates a loop. Nothing runs until Run or Start.
func New(src source.Source, det detection.Detector, surface display.Surface, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Loop{
		src:      src,
		detector: det,
		surface:  surface,
		opts:     opts,
		cancel:   func() {},
		done:     make(chan struct{}),
	}
}

// Run processes frames on the calling goroutine until the loop finishes.
func (l *Loop) Run(ctx context.Context) Result {
	ctx, err := l.begin(ctx)
	if err != nil {
		return Result{Reason: Failed, Err: err}
	}
	return l.run(ctx)
}

// Start processes frames on a new goroutine.
func (l *Loop) Start(ctx context.Context) error {
	ctx, err := l.begin(ctx)
	if err != nil {
		return err
	}
	go l.run(ctx)
	return nil
}

// Stop cancels the loop and blocks until the source has been released.
// No tick runs after Stop returns. Stopping a loop that never started
// releases its source.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.started {
		l.started = true
		l.result = Result{Reason: Stopped}
		l.mu.Unlock()
		l.release()
		close(l.done)
		return
	}
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	<-l.done
}

// Done is closed once the loop has finished and released its source.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Result returns the outcome. Only meaningful after Done is closed.
func (l *Loop) Result() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

func (l *Loop) begin(ctx context.Context) (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil, ErrAlreadyStarted
	}
	l.started = true
	ctx, l.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (l *Loop) run(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Reason: Failed, Frames: res.Frames, Err: fmt.Errorf("pipeline: panic: %v", r)}
		}
		l.release()

		l.mu.Lock()
		l.result = res
		cancel := l.cancel
		l.mu.Unlock()

		cancel()
		close(l.done)
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	return l.loop(ctx, &frame)
}

func (l *Loop) loop(ctx context.Context, frame *gocv.Mat) Result {
	var timer *time.Timer
	frames := 0

	for {
		if ctx.Err() != nil {
			return Result{Reason: Stopped, Frames: frames}
		}

		err := l.tick(frame, frames+1)
		switch {
		case errors.Is(err, source.ErrEndOfStream):
			debug.FrameLog("📼 %s source ended after %d frame(s)\n", l.src.Kind(), frames)
			return Result{Reason: EndOfStream, Frames: frames}
		case err != nil:
			return Result{Reason: Failed, Frames: frames, Err: err}
		}
		frames++

		if !l.opts.Repeat {
			return Result{Reason: Completed, Frames: frames}
		}

		if timer == nil {
			timer = time.NewTimer(l.opts.Interval)
			defer timer.Stop()
		} else {
			timer.Reset(l.opts.Interval)
		}

		select {
		case <-ctx.Done():
			return Result{Reason: Stopped, Frames: frames}
		case <-timer.C:
		}
	}
}

// tick runs one read, detect, draw, render cycle.
func (l *Loop) tick(frame *gocv.Mat, n int) error {
	if err := l.src.Read(frame); err != nil {
		if errors.Is(err, source.ErrEndOfStream) {
			return err
		}
		return fmt.Errorf("read frame: %w", err)
	}

	input, err := annotate.PrepareInput(*frame, l.detector.InputFormat())
	if err != nil {
		input.Close()
		return fmt.Errorf("prepare frame: %w", err)
	}
	dets, err := l.detector.Detect(input, l.opts.Detect)
	input.Close()
	if err != nil {
		return fmt.Errorf("detect faces: %w", err)
	}

	annotate.Draw(frame, dets, l.opts.Style)

	img, err := annotate.ToDisplay(*frame, l.opts.DisplayWidth, l.opts.DisplayHeight)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	if err := l.surface.Render(img); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}

	debug.FrameLog("🖼️  frame %d: %d face(s)\n", n, len(dets))
	if l.opts.OnFrame != nil {
		l.opts.OnFrame(n, dets)
	}
	return nil
}

func (l *Loop) release() {
	if err := l.src.Close(); err != nil {
		log.Warn("release frame source", "kind", l.src.Kind().String(), "error", err)
	}
}
