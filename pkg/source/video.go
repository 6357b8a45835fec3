package source

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/debug"
	"gocv.io/x/gocv"
)

// Capture reads frames from a gocv.VideoCapture, either a video file or a
// camera device.
type Capture struct {
	kind   Kind
	name   string
	vc     *gocv.VideoCapture
	mirror bool
	closed bool
	mu     sync.Mutex
}

// OpenVideo opens a video file for sequential reading.
func OpenVideo(path string) (*Capture, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w video %s: %v", ErrOpen, path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w video %s", ErrOpen, path)
	}

	debug.Log("📼 Opened %s (%.0f frames at %.1f fps)\n", path,
		vc.Get(gocv.VideoCaptureFrameCount), vc.Get(gocv.VideoCaptureFPS))
	return &Capture{kind: KindVideo, name: path, vc: vc}, nil
}

// OpenCamera opens a live camera using the given capture settings.
func OpenCamera(cfg camera.Config) (*Capture, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w camera %d: %v", ErrOpen, cfg.Device, err)
	}

	vc, err := gocv.VideoCaptureDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w camera %d: %v", ErrOpen, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w camera %d", ErrOpen, cfg.Device)
	}

	// Drivers treat these as hints; unsupported values are ignored.
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	debug.Log("📷 Opened camera %d (%.0fx%.0f)\n", cfg.Device,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))
	return &Capture{
		kind:   KindCamera,
		name:   fmt.Sprintf("camera %d", cfg.Device),
		vc:     vc,
		mirror: cfg.Mirror,
	}, nil
}

// Read grabs the next frame. A failed grab, whether end of file or a
// device error, is reported as ErrEndOfStream.
func (s *Capture) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if ok := s.vc.Read(dst); !ok || dst.Empty() {
		return ErrEndOfStream
	}
	if s.mirror {
		gocv.Flip(*dst, dst, 1)
	}
	return nil
}

// Kind returns KindVideo or KindCamera.
func (s *Capture) Kind() Kind { return s.kind }

// Name returns the file path or camera label.
func (s *Capture) Name() string { return s.name }

// Close releases the capture handle.
func (s *Capture) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.vc.Close()
}
