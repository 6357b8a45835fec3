// Package detection provides face detection using computer vision
package detection

import (
	"fmt"

	"github.com/samber/lo"
	"gocv.io/x/gocv"
)

// DefaultMinConfidence is the detection threshold used by every mode.
const DefaultMinConfidence = 0.5

// Model selects the face detection model variant.
type Model int

const (
	// ShortRange is tuned for faces close to the camera (within ~2m).
	ShortRange Model = iota
	// FullRange also finds small, distant faces (within ~5m).
	FullRange
)

// String returns the model name used in logs and the API.
func (m Model) String() string {
	switch m {
	case ShortRange:
		return "short-range"
	case FullRange:
		return "full-range"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// ColorFormat is the channel order a detector expects.
type ColorFormat int

const (
	// FormatBGR is OpenCV's native channel order.
	FormatBGR ColorFormat = iota
	// FormatRGB is the channel order most ML runtimes expect.
	FormatRGB
)

// Point is a normalized (0-1) position within a frame.
type Point struct {
	X, Y float64
}

// Detection represents a detected face
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
	Keypoints  []Point // Facial landmarks, may be empty
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Options are the per-call detection parameters.
type Options struct {
	Model         Model
	MinConfidence float64
}

// OptionsFor returns the options for a model at the default threshold.
func OptionsFor(m Model) Options {
	return Options{Model: m, MinConfidence: DefaultMinConfidence}
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in the frame and returns their positions.
	// The frame must already be in InputFormat order.
	Detect(frame gocv.Mat, opts Options) ([]Detection, error)

	// InputFormat reports the channel order Detect expects
	InputFormat() ColorFormat

	// Close releases resources
	Close() error
}

// ModelConfig describes one model variant.
type ModelConfig struct {
	ModelPath string // Path to ONNX model
	MaxSide   int    // Longest frame side fed to the model, 0 = native size
}

// Config holds detector configuration
type Config struct {
	ShortRange ModelConfig
	FullRange  ModelConfig

	NMSThresh float64 // Non-maximum suppression IoU threshold
	TopK      int     // Maximum candidates kept before NMS
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ShortRange: ModelConfig{
			ModelPath: "models/face_detection_yunet.onnx",
			MaxSide:   320,
		},
		FullRange: ModelConfig{
			ModelPath: "models/face_detection_yunet.onnx",
			MaxSide:   0,
		},
		NMSThresh: 0.3,
		TopK:      5000,
	}
}

// For returns the model config for the given selection.
func (c Config) For(m Model) (ModelConfig, error) {
	switch m {
	case ShortRange:
		return c.ShortRange, nil
	case FullRange:
		return c.FullRange, nil
	default:
		return ModelConfig{}, fmt.Errorf("%w: %s", ErrUnknownModel, m)
	}
}

// Filter drops detections below the minimum confidence.
func Filter(dets []Detection, minConfidence float64) []Detection {
	return lo.Filter(dets, func(d Detection, _ int) bool {
		return d.Confidence >= minConfidence
	})
}
