package facedetect

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/teslashibe/go-facedetect/internal/log"
	"github.com/teslashibe/go-facedetect/pkg/app"
	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/debug"
	"github.com/teslashibe/go-facedetect/pkg/detection"
	"github.com/teslashibe/go-facedetect/pkg/pipeline"
	"github.com/teslashibe/go-facedetect/pkg/web"
	"go.uber.org/multierr"
)

// App is the application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config

	detector   detection.Detector
	opener     app.Opener
	cameraMgr  *camera.Manager
	controller *app.Controller
	webServer  *web.Server

	mu   sync.Mutex
	addr net.Addr
}

// Option customizes App construction.
type Option func(*App)

// WithDetector uses det instead of loading the YuNet model.
func WithDetector(det detection.Detector) Option {
	return func(a *App) { a.detector = det }
}

// WithOpener replaces the file and camera opener.
func WithOpener(o app.Opener) Option {
	return func(a *App) { a.opener = o }
}

// New creates the application. cfg is used as given.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	a := &App{config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init loads the detector and builds the dashboard.
// Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("🙂 Face Detection App")
	fmt.Println("=====================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	if a.detector == nil {
		fmt.Print("🧠 Loading face detector... ")
		det, err := detection.NewYuNet(a.detectorConfig())
		if err != nil {
			fmt.Println("❌")
			return fmt.Errorf("face detector: %w", err)
		}
		a.detector = det
		fmt.Println("✅")
	}

	camCfg := camera.DefaultConfig()
	camCfg.Device = a.config.CameraDevice
	a.cameraMgr = camera.NewManager(camCfg)
	a.cameraMgr.OnConfigChange = func(cfg camera.Config) error {
		log.Info("camera settings changed", "device", cfg.Device,
			"width", cfg.Width, "height", cfg.Height, "fps", cfg.Framerate, "mirror", cfg.Mirror)
		return nil
	}

	if a.opener == nil {
		a.opener = app.SourceOpener{Camera: a.cameraMgr}
	}

	a.webServer = web.NewServer(web.Config{
		Addr:        a.config.Addr(),
		MediaDir:    a.config.MediaDir,
		JPEGQuality: a.config.JPEGQuality,
		Camera:      a.cameraMgr,
	})

	opts := pipeline.DefaultOptions()
	opts.Apply(
		pipeline.WithInterval(a.config.Interval),
		pipeline.WithDisplaySize(a.config.DisplayWidth, a.config.DisplayHeight),
	)
	a.controller = app.NewController(a.detector, a.webServer, a.webServer, a.opener, opts)
	a.webServer.SetController(a.controller)

	return nil
}

// detectorConfig points both model variants at the configured model file.
func (a *App) detectorConfig() detection.Config {
	cfg := detection.DefaultConfig()
	cfg.ShortRange.ModelPath = a.config.ModelPath()
	cfg.FullRange.ModelPath = a.config.ModelPath()
	return cfg
}

// Run serves the dashboard. Blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.webServer == nil {
		return fmt.Errorf("facedetect: Run called before Init")
	}

	ln, err := net.Listen("tcp", a.config.Addr())
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	fmt.Println("\n👀 Open the dashboard and choose a detection mode")
	fmt.Println("   (Ctrl+C to exit)")

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.webServer.Serve(ctx, ln)
	}()

	select {
	case <-ctx.Done():
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the dashboard address once Run is listening, or nil.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Controller returns the mode controller. Nil before Init.
func (a *App) Controller() *app.Controller {
	return a.controller
}

// Shutdown stops any running detection, releases the detector and stops
// the dashboard.
func (a *App) Shutdown() error {
	fmt.Println("\n👋 Goodbye!")

	var err error
	if a.controller != nil {
		err = multierr.Append(err, a.controller.Close())
	} else if a.detector != nil {
		err = multierr.Append(err, a.detector.Close())
	}
	if a.webServer != nil {
		err = multierr.Append(err, a.webServer.Shutdown())
	}
	return err
}
