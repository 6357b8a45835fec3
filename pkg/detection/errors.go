package detection

import "errors"

// Sentinel errors for common conditions.
var (
	// ErrModelNotFound is returned when the ONNX model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrEmptyFrame is returned when Detect is handed an empty Mat.
	ErrEmptyFrame = errors.New("detection: empty frame")

	// ErrUnknownModel is returned for an unsupported model selection.
	ErrUnknownModel = errors.New("detection: unknown model")

	// ErrClosed is returned when a closed detector is used.
	ErrClosed = errors.New("detection: detector closed")
)
