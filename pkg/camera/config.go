// Package camera holds the webcam capture settings used when webcam mode
// opens a device.
package camera

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("camera: invalid config")

// Config holds the webcam capture parameters.
// Zero Width, Height or Framerate leave the driver default in place.
type Config struct {
	Device    int  `json:"device"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Framerate int  `json:"framerate"`
	Mirror    bool `json:"mirror"` // Flip horizontally, selfie style
}

// Accepted ranges.
const (
	MaxDevice    = 63
	MinWidth     = 160
	MaxWidth     = 4096
	MinHeight    = 120
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig is 640x480 at 30fps on the first device.
func DefaultConfig() Config {
	return Config{Width: 640, Height: 480, Framerate: 30}
}

// Validate reports every out-of-range field, combined into one error.
func (c Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Device >= 0 && c.Device <= MaxDevice, "device %d outside 0..%d", c.Device, MaxDevice)
	check((c.Width == 0) == (c.Height == 0), "width and height must both be set or both be 0")
	check(c.Width == 0 || (c.Width >= MinWidth && c.Width <= MaxWidth),
		"width %d outside %d..%d", c.Width, MinWidth, MaxWidth)
	check(c.Height == 0 || (c.Height >= MinHeight && c.Height <= MaxHeight),
		"height %d outside %d..%d", c.Height, MinHeight, MaxHeight)
	check(c.Framerate >= 0 && c.Framerate <= MaxFramerate,
		"framerate %d outside 0..%d", c.Framerate, MaxFramerate)

	return err
}

// Limits describes the accepted ranges for the dashboard.
type Limits struct {
	MaxDevice    int `json:"max_device"`
	MinWidth     int `json:"min_width"`
	MaxWidth     int `json:"max_width"`
	MinHeight    int `json:"min_height"`
	MaxHeight    int `json:"max_height"`
	MaxFramerate int `json:"max_framerate"`
}

// CaptureLimits returns the ranges Validate enforces.
func CaptureLimits() Limits {
	return Limits{
		MaxDevice:    MaxDevice,
		MinWidth:     MinWidth,
		MaxWidth:     MaxWidth,
		MinHeight:    MinHeight,
		MaxHeight:    MaxHeight,
		MaxFramerate: MaxFramerate,
	}
}
