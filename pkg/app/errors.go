package app

import "errors"

// Sentinel errors for common conditions.
var (
	// ErrUnknownMode is returned for mode names outside Modes().
	ErrUnknownMode = errors.New("app: unknown mode")

	// ErrNoFrame is returned when an image source yields nothing to show.
	ErrNoFrame = errors.New("app: no frame available")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("app: controller closed")
)
