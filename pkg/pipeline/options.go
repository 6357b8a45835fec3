package pipeline

import (
	"time"

	"github.com/teslashibe/go-facedetect/pkg/annotate"
	"github.com/teslashibe/go-facedetect/pkg/detection"
)

// DefaultInterval is the delay between ticks of a repeating loop.
const DefaultInterval = 10 * time.Millisecond

// Display area the annotated frames are fitted into.
const (
	DefaultDisplayWidth  = 960
	DefaultDisplayHeight = 600
)

// Options configures a Loop.
type Options struct {
	// Repeat keeps ticking until the source ends or the loop is stopped.
	// When false the loop stops after one frame.
	Repeat bool

	// Detect is passed unchanged to every Detect call.
	Detect detection.Options

	// Interval is the delay between repeating ticks.
	Interval time.Duration

	// Display fit; zero keeps the native frame size.
	DisplayWidth  int
	DisplayHeight int

	Style annotate.Style

	// OnFrame, if set, is called after each rendered frame with the
	// 1-based frame number and the detections drawn on it.
	OnFrame func(n int, dets []detection.Detection)
}

// DefaultOptions returns single-shot full-range options.
func DefaultOptions() Options {
	return Options{
		Detect:        detection.OptionsFor(detection.FullRange),
		Interval:      DefaultInterval,
		DisplayWidth:  DefaultDisplayWidth,
		DisplayHeight: DefaultDisplayHeight,
		Style:         annotate.DefaultStyle(),
	}
}

// Option is a functional option for configuring a Loop.
type Option func(*Options)

// WithRepeat makes the loop tick until the source ends.
func WithRepeat(repeat bool) Option {
	return func(o *Options) { o.Repeat = repeat }
}

// WithModel selects the detector model variant.
func WithModel(m detection.Model) Option {
	return func(o *Options) { o.Detect.Model = m }
}

// WithInterval sets the delay between repeating ticks.
func WithInterval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

// WithDisplaySize sets the area frames are fitted into.
func WithDisplaySize(w, h int) Option {
	return func(o *Options) { o.DisplayWidth, o.DisplayHeight = w, h }
}

// WithFrameCallback registers an observer for rendered frames.
func WithFrameCallback(fn func(n int, dets []detection.Detection)) Option {
	return func(o *Options) { o.OnFrame = fn }
}

// Apply applies options to the config.
func (o *Options) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}
