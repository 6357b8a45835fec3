// Package facedetect wires the detector, the mode controller and the
// dashboard into one application.
package facedetect

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/teslashibe/go-facedetect/internal/config"
	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/pipeline"
)

// Default configuration values.
const (
	DefaultHost      = "127.0.0.1"
	DefaultModelFile = "face_detection_yunet.onnx"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/facedetect/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugFrames logs every processed frame.
	DebugFrames bool

	// LogLevel is passed to the structured logger.
	LogLevel string

	// Dashboard address. Host defaults to loopback only.
	Host string
	Port string

	// Detector model location.
	ModelsDir string
	ModelFile string

	// MediaDir is where the file picker opens.
	MediaDir string

	// CameraDevice is the webcam index.
	CameraDevice int

	// Loop settings.
	Interval      time.Duration
	DisplayWidth  int
	DisplayHeight int

	JPEGQuality int
}

// DefaultConfig returns defaults without consulting the environment.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		Host:          DefaultHost,
		Port:          config.DefaultPort,
		ModelsDir:     config.DefaultModelsDir,
		ModelFile:     DefaultModelFile,
		MediaDir:      ".",
		CameraDevice:  config.DefaultCamera,
		Interval:      pipeline.DefaultInterval,
		DisplayWidth:  pipeline.DefaultDisplayWidth,
		DisplayHeight: pipeline.DefaultDisplayHeight,
		JPEGQuality:   80,
	}
}

// LoadEnvConfig applies environment overrides.
// Call this before flag parsing so flags win.
func (c *Config) LoadEnvConfig() {
	c.Port = config.Port()
	c.ModelsDir = config.ModelsDir()
	c.MediaDir = config.MediaDir()
	c.CameraDevice = config.CameraDevice()
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if n, err := strconv.Atoi(c.Port); err != nil || n < 0 || n > 65535 {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("invalid port %q", c.Port)}
	}
	if c.ModelFile == "" {
		return &ConfigError{Field: "ModelFile", Message: "model file name is required"}
	}
	if c.CameraDevice < 0 || c.CameraDevice > camera.MaxDevice {
		return &ConfigError{Field: "CameraDevice", Message: fmt.Sprintf("camera device must be between 0 and %d", camera.MaxDevice)}
	}
	if c.Interval <= 0 {
		return &ConfigError{Field: "Interval", Message: "frame interval must be positive"}
	}
	return nil
}

// Addr returns the dashboard listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// ModelPath returns the full path of the detector model.
func (c Config) ModelPath() string {
	return config.ModelPath(c.ModelsDir, c.ModelFile)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
