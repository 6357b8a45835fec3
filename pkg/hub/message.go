// Package hub fans websocket messages out to every connected client.
// One goroutine owns the client set; each client has its own writer.
package hub

// Kind is the websocket frame type a message is written as.
type Kind uint8

const (
	Text   Kind = iota // JSON events
	Binary             // JPEG frames
)

// Message is one broadcast payload.
type Message struct {
	Kind    Kind
	Payload []byte
}
