package app

import (
	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/source"
)

// Opener opens the frame source for a mode.
type Opener interface {
	Open(mode Mode, path string) (source.Source, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(mode Mode, path string) (source.Source, error)

// Open calls f.
func (f OpenerFunc) Open(mode Mode, path string) (source.Source, error) {
	return f(mode, path)
}

// SourceOpener opens real files and cameras.
type SourceOpener struct {
	Camera *camera.Manager
}

// Open opens path for the image and video modes, or the configured camera
// for the webcam mode.
func (o SourceOpener) Open(mode Mode, path string) (source.Source, error) {
	switch mode {
	case ModeImage:
		s, err := source.OpenImage(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ModeVideo:
		s, err := source.OpenVideo(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ModeWebcam:
		cfg := camera.DefaultConfig()
		if o.Camera != nil {
			cfg = o.Camera.GetConfig()
		}
		s, err := source.OpenCamera(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrUnknownMode
	}
}
