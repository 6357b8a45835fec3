package source

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock implements Source for testing. It replays Frames in order and
// takes ownership of them: Close frees every frame.
type Mock struct {
	Frames []gocv.Mat

	// Loop replays Frames forever instead of ending the stream.
	Loop bool

	// ReadFunc, if set, runs before each read with the zero-based read index.
	// A non-nil error is returned from Read.
	ReadFunc func(n int) error

	SourceKind Kind

	mu     sync.Mutex
	reads  int
	closed bool
}

// NewMock returns a mock source replaying frames once.
func NewMock(kind Kind, frames ...gocv.Mat) *Mock {
	return &Mock{Frames: frames, SourceKind: kind}
}

// Read copies the next frame into dst.
func (m *Mock) Read(dst *gocv.Mat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	n := m.reads
	m.reads++

	if m.ReadFunc != nil {
		if err := m.ReadFunc(n); err != nil {
			return err
		}
	}

	if len(m.Frames) == 0 {
		return ErrEndOfStream
	}
	if n >= len(m.Frames) {
		if !m.Loop {
			return ErrEndOfStream
		}
		n %= len(m.Frames)
	}
	m.Frames[n].CopyTo(dst)
	return nil
}

// Kind returns SourceKind.
func (m *Mock) Kind() Kind { return m.SourceKind }

// Close frees the frames and marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, f := range m.Frames {
		f.Close()
	}
	return nil
}

// Reads returns how many times Read was called.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
