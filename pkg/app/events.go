package app

import "time"

// State is the screen the user is on.
type State string

const (
	// StateSelection is the "Choose Detection Mode" screen.
	StateSelection State = "selection"
	// StateRunning means a video or webcam loop is ticking.
	StateRunning State = "running"
	// StateShowing means an annotated image is displayed.
	StateShowing State = "showing"
)

// Event types sent to the Notifier.
const (
	EventState = "state"
	EventError = "error"
)

// Event is a state change or an error dialog for the user.
type Event struct {
	Type    string    `json:"type"`
	State   State     `json:"state,omitempty"`
	Mode    Mode      `json:"mode,omitempty"`
	Session string    `json:"session,omitempty"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier delivers events to the user interface.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev Event)

// Notify calls f.
func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Status is a snapshot of the controller.
type Status struct {
	State     State     `json:"state"`
	Mode      Mode      `json:"mode,omitempty"`
	Model     string    `json:"model,omitempty"`
	Session   string    `json:"session,omitempty"`
	Source    string    `json:"source,omitempty"`
	Frames    int64     `json:"frames"`
	Faces     int64     `json:"faces"` // Faces on the latest frame
	StartedAt time.Time `json:"started_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}
