// Package web serves the face detection dashboard: the mode menu, the file
// picker, the live annotated frame view and the error dialog.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"image"
	"io/fs"
	"net"
	"net/http"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-facedetect/internal/log"
	"github.com/teslashibe/go-facedetect/pkg/app"
	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/hub"
)

//go:embed static
var staticFiles embed.FS

// DefaultJPEGQuality is used when Config.JPEGQuality is zero.
const DefaultJPEGQuality = 80

// Controller is the mode flow driven by the dashboard.
type Controller interface {
	Start(ctx context.Context, mode app.Mode, path string) error
	Back()
	Status() app.Status
}

// Config configures the dashboard server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string

	// MediaDir is where the file picker opens.
	MediaDir string

	JPEGQuality int

	// Camera, if set, exposes the webcam settings.
	Camera *camera.Manager
}

// Server is the dashboard. It is also the display surface and the event
// notifier for the controller.
type Server struct {
	app *fiber.App
	cfg Config

	ctrl Controller

	// Latest rendered frame, JPEG encoded
	frame   []byte
	frameMu sync.RWMutex

	// Last error dialog shown
	lastErr   *app.Event
	lastErrMu sync.RWMutex

	frameHub *hub.Hub
	eventHub *hub.Hub
}

// NewServer creates the dashboard server. Call SetController before serving.
func NewServer(cfg Config) *Server {
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = DefaultJPEGQuality
	}

	s := &Server{
		cfg:      cfg,
		frameHub: hub.New("frames"),
		eventHub: hub.New("events"),
	}

	fa := fiber.New(fiber.Config{
		AppName:               "Face Detection App",
		DisableStartupMessage: true,
	})

	fa.Use(cors.New())

	fa.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := fa.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/modes", s.handleModes)
	api.Get("/files", s.handleFiles)
	api.Post("/start", s.handleStart)
	api.Post("/back", s.handleBack)
	api.Get("/frame", s.handleFrame)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	fa.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	fa.Get("/ws/frames", websocket.New(s.handleFramesWS))
	fa.Get("/ws/events", websocket.New(s.handleEventsWS))

	root, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	fa.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(root),
		Index: "index.html",
	}))

	s.app = fa
	return s
}

// SetController attaches the mode flow.
func (s *Server) SetController(ctrl Controller) {
	s.ctrl = ctrl
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the hubs and serves on ln until ctx is cancelled or Shutdown
// is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.frameHub.Run(ctx)
	go s.eventHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			log.Warn("dashboard shutdown", "error", err)
		}
	}()

	fmt.Printf("🌐 Face detection dashboard: http://%s\n", ln.Addr())
	return s.app.Listener(ln)
}

// ListenAndServe listens on Config.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Render encodes img and pushes it to every frame viewer.
func (s *Server) Render(img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.cfg.JPEGQuality)); err != nil {
		return fmt.Errorf("web: encode frame: %w", err)
	}
	data := buf.Bytes()

	s.frameMu.Lock()
	s.frame = data
	s.frameMu.Unlock()

	s.frameHub.BroadcastBinary(data)
	return nil
}

// Clear drops the displayed frame.
func (s *Server) Clear() {
	s.frameMu.Lock()
	s.frame = nil
	s.frameMu.Unlock()
}

// Frame returns the latest JPEG frame, or nil.
func (s *Server) Frame() []byte {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.frame
}

// Notify forwards a controller event to the dashboard.
func (s *Server) Notify(ev app.Event) {
	if ev.Type == app.EventError {
		s.lastErrMu.Lock()
		s.lastErr = &ev
		s.lastErrMu.Unlock()
	}
	if err := s.eventHub.BroadcastJSON(ev); err != nil {
		log.Warn("broadcast event", "type", ev.Type, "error", err)
	}
}

// LastError returns the most recent error event, if any.
func (s *Server) LastError() (app.Event, bool) {
	s.lastErrMu.RLock()
	defer s.lastErrMu.RUnlock()
	if s.lastErr == nil {
		return app.Event{}, false
	}
	return *s.lastErr, true
}
