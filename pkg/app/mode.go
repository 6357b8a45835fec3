package app

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-facedetect/pkg/detection"
	"github.com/teslashibe/go-facedetect/pkg/picker"
)

// Mode selects the frame source and how the loop repeats.
type Mode string

const (
	ModeImage  Mode = "image"
	ModeVideo  Mode = "video"
	ModeWebcam Mode = "webcam"
)

// Modes returns the modes in menu order.
func Modes() []Mode {
	return []Mode{ModeImage, ModeVideo, ModeWebcam}
}

// ParseMode accepts a mode name, case-insensitive.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeImage, ModeVideo, ModeWebcam:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Label is the menu button text.
func (m Mode) Label() string {
	switch m {
	case ModeImage:
		return "Image Detection"
	case ModeVideo:
		return "Video Detection"
	case ModeWebcam:
		return "Webcam Detection"
	default:
		return string(m)
	}
}

// Repeat reports whether the mode keeps pulling frames.
func (m Mode) Repeat() bool {
	return m == ModeVideo || m == ModeWebcam
}

// Model returns the detector variant for the mode: short-range for the
// webcam, full-range for files.
func (m Mode) Model() detection.Model {
	if m == ModeWebcam {
		return detection.ShortRange
	}
	return detection.FullRange
}

// Filter returns the picker filter for file-based modes.
func (m Mode) Filter() (picker.Filter, bool) {
	switch m {
	case ModeImage:
		return picker.Images, true
	case ModeVideo:
		return picker.Videos, true
	default:
		return picker.Filter{}, false
	}
}

// NeedsFile reports whether the mode starts with the file picker.
func (m Mode) NeedsFile() bool {
	_, ok := m.Filter()
	return ok
}

// FailureMessage is the text shown in the error dialog.
func (m Mode) FailureMessage(err error) string {
	switch m {
	case ModeImage:
		return fmt.Sprintf("Could not process image: %v", err)
	case ModeVideo:
		return fmt.Sprintf("Could not process video: %v", err)
	case ModeWebcam:
		return fmt.Sprintf("Could not process webcam feed: %v", err)
	default:
		return fmt.Sprintf("Processing failed: %v", err)
	}
}

// ModeInfo describes a mode for the dashboard menu.
type ModeInfo struct {
	Mode    Mode           `json:"mode"`
	Label   string         `json:"label"`
	Model   string         `json:"model"`
	Repeat  bool           `json:"repeat"`
	Filter  *picker.Filter `json:"filter,omitempty"`
	Pattern string         `json:"pattern,omitempty"`
}

// Info returns the menu description of m.
func (m Mode) Info() ModeInfo {
	info := ModeInfo{
		Mode:   m,
		Label:  m.Label(),
		Model:  m.Model().String(),
		Repeat: m.Repeat(),
	}
	if f, ok := m.Filter(); ok {
		info.Filter = &f
		info.Pattern = f.Pattern()
	}
	return info
}
