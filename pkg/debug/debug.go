// Package debug holds the process-wide verbose switches set from flags.
package debug

import "fmt"

var (
	// Enabled turns on verbose console output (-debug).
	Enabled bool

	// Frames turns on one line per processed frame (-debug-frames).
	Frames bool
)

// Log prints when Enabled is set.
func Log(format string, args ...any) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// FrameLog prints when Frames is set.
func FrameLog(format string, args ...any) {
	if Frames {
		fmt.Printf(format, args...)
	}
}
