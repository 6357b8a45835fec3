package detection

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(frame gocv.Mat, opts Options) ([]Detection, error)

	// Format is returned by InputFormat.
	Format ColorFormat

	mu     sync.Mutex
	calls  []Options
	closed bool
}

// NewMock creates a mock detector that finds nothing.
func NewMock() *Mock {
	return &Mock{}
}

// WithDetections returns a mock that always reports dets.
func WithDetections(dets ...Detection) *Mock {
	return &Mock{
		DetectFunc: func(gocv.Mat, Options) ([]Detection, error) {
			return dets, nil
		},
	}
}

// WithError returns a mock whose Detect always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(gocv.Mat, Options) ([]Detection, error) {
			return nil, err
		},
	}
}

// Detect records the options and calls DetectFunc.
func (m *Mock) Detect(frame gocv.Mat, opts Options) ([]Detection, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if m.DetectFunc != nil {
		return m.DetectFunc(frame, opts)
	}
	return nil, nil
}

// InputFormat returns Format.
func (m *Mock) InputFormat() ColorFormat {
	return m.Format
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns the options of every Detect call so far.
func (m *Mock) Calls() []Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Options, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Detect calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
