// Package source provides the frame sources the annotation loop reads from:
// a static image, a video file, or a live camera.
package source

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// Sentinel errors for common conditions.
var (
	// ErrEndOfStream is returned by Read when no more frames are available.
	// Camera read failures are reported the same way.
	ErrEndOfStream = errors.New("source: end of stream")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("source: closed")

	// ErrDecode is returned when a file exists but cannot be decoded.
	ErrDecode = errors.New("source: cannot decode")

	// ErrOpen is returned when a video file or device cannot be opened.
	ErrOpen = errors.New("source: cannot open")
)

// Kind identifies what a source reads from.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindCamera:
		return "camera"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source produces BGR frames one at a time.
// A Source is owned by a single goroutine; Close must be safe to call twice.
type Source interface {
	// Read fills dst with the next frame.
	// Returns ErrEndOfStream when the source is exhausted.
	Read(dst *gocv.Mat) error

	// Kind reports the source type
	Kind() Kind

	// Close releases the file or device handle
	Close() error
}

// checkFile returns a descriptive error for paths that cannot be read.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrOpen, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w %s: is a directory", ErrOpen, path)
	}
	return nil
}
