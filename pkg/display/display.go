// Package display defines the surface annotated frames are rendered to.
package display

import (
	"image"
	"sync"
)

// Surface shows rendered frames to the user.
type Surface interface {
	// Render replaces the displayed image
	Render(img image.Image) error

	// Clear removes the displayed image
	Clear()
}

// Recorder implements Surface for testing. It keeps every rendered frame.
type Recorder struct {
	// RenderFunc, if set, is called before recording. A non-nil error is
	// returned from Render and the frame is not recorded.
	RenderFunc func(img image.Image) error

	mu     sync.Mutex
	frames []image.Image
	clears int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Render records img.
func (r *Recorder) Render(img image.Image) error {
	if r.RenderFunc != nil {
		if err := r.RenderFunc(img); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, img)
	return nil
}

// Clear counts the call; recorded frames are kept for inspection.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

// Frames returns every rendered frame in order.
func (r *Recorder) Frames() []image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]image.Image, len(r.frames))
	copy(out, r.frames)
	return out
}

// Count returns the number of rendered frames.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Last returns the most recent frame, or nil.
func (r *Recorder) Last() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

// Clears returns how many times Clear was called.
func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
