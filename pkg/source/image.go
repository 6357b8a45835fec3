package source

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Image is a single-frame source backed by a decoded image file.
type Image struct {
	path     string
	frame    gocv.Mat
	consumed bool
	closed   bool
	mu       sync.Mutex
}

// OpenImage decodes the image at path.
// Corrupt or unsupported files fail here rather than on Read.
func OpenImage(path string) (*Image, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}

	frame := gocv.IMRead(path, gocv.IMReadColor)
	if frame.Empty() {
		frame.Close()
		return nil, fmt.Errorf("%w image %s", ErrDecode, path)
	}

	return &Image{path: path, frame: frame}, nil
}

// Read copies the image into dst the first time and reports
// ErrEndOfStream afterwards.
func (s *Image) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.consumed {
		return ErrEndOfStream
	}
	s.frame.CopyTo(dst)
	s.consumed = true
	return nil
}

// Kind returns KindImage.
func (s *Image) Kind() Kind { return KindImage }

// Path returns the file the image was loaded from.
func (s *Image) Path() string { return s.path }

// Close frees the decoded frame.
func (s *Image) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.frame.Close()
}
