package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/samber/lo"
	"github.com/teslashibe/go-facedetect/pkg/app"
	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/hub"
	"github.com/teslashibe/go-facedetect/pkg/picker"
)

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	app.Status
	LastDialog *app.Event `json:"last_dialog,omitempty"`
	Viewers    int        `json:"viewers"`
}

// StartRequest is the body of POST /api/start.
// An empty Path for image or video means the picker was cancelled.
type StartRequest struct {
	Mode string `json:"mode"`
	Path string `json:"path"`
}

func notReady(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "detection not ready",
	})
}

// handleStatus returns the controller state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return notReady(c)
	}

	resp := StatusResponse{
		Status:  ctrl.Status(),
		Viewers: s.frameHub.ClientCount(),
	}
	if ev, ok := s.LastError(); ok {
		resp.LastDialog = &ev
	}
	return c.JSON(resp)
}

// handleModes returns the mode menu
func (s *Server) handleModes(c *fiber.Ctx) error {
	return c.JSON(lo.Map(app.Modes(), func(m app.Mode, _ int) app.ModeInfo {
		return m.Info()
	}))
}

// handleFiles lists a directory for the picker. Query: mode, dir.
func (s *Server) handleFiles(c *fiber.Ctx) error {
	mode, err := app.ParseMode(c.Query("mode", string(app.ModeImage)))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	filter, ok := mode.Filter()
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "mode " + string(mode) + " does not use the file picker",
		})
	}

	dir := c.Query("dir", s.cfg.MediaDir)
	if dir == "" {
		dir = "."
	}

	listing, err := picker.Browse(dir, filter)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"filter":  filter,
		"pattern": filter.Pattern(),
		"listing": listing,
	})
}

// handleStart starts a mode. Processing failures are reported through the
// event channel and answered with 422 so the page stays on selection.
func (s *Server) handleStart(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return notReady(c)
	}

	var req StartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	mode, err := app.ParseMode(req.Mode)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.Start(c.UserContext(), mode, req.Path); err != nil {
		if errors.Is(err, app.ErrClosed) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   err.Error(),
			"message": mode.FailureMessage(err),
			"status":  ctrl.Status(),
		})
	}
	return c.JSON(ctrl.Status())
}

// handleBack stops the current mode
func (s *Server) handleBack(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return notReady(c)
	}
	ctrl.Back()
	return c.JSON(ctrl.Status())
}

// handleFrame returns the latest annotated frame as JPEG
func (s *Server) handleFrame(c *fiber.Ctx) error {
	frame := s.Frame()
	if frame == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no frame"})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(frame)
}

// handleGetCamera returns the webcam settings
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cfg.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "camera settings not available"})
	}
	return c.JSON(s.cfg.Camera.GetConfig())
}

// handleUpdateCamera applies a partial update, e.g. {"preset":"720p"}.
// Changes take effect the next time webcam mode starts.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.cfg.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "camera settings not available"})
	}

	update, err := camera.ParseUpdate(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	cfg, err := s.cfg.Camera.Apply(update)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(cfg)
}

// handleCameraPresets lists the named camera configurations
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": camera.Presets(),
		"limits":  camera.CaptureLimits(),
	})
}

// handleFramesWS streams annotated JPEG frames
func (s *Server) handleFramesWS(c *websocket.Conn) {
	if frame := s.Frame(); frame != nil {
		c.WriteMessage(websocket.BinaryMessage, frame)
	}
	hub.Serve(s.frameHub, c)
}

// handleEventsWS streams state and error events
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.Serve(s.eventHub, c)
}
