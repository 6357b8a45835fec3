package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Connection timing.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Clients only send control frames.
	readLimit = 4 << 10

	// Frames queued per client before it counts as slow.
	sendBuffer = 16
)

// Conn is the part of a websocket connection a Client uses.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Client is one websocket viewer.
type Client struct {
	hub  *Hub
	conn Conn
	send chan Message
}

// Serve registers conn with h and blocks until the connection closes or
// the hub stops.
func Serve(h *Hub, conn Conn) {
	c := &Client{hub: h, conn: conn, send: make(chan Message, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.write()
	c.read()
}

// read drains the connection so pongs and close frames are processed.
func (c *Client) read() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	extend := func() { c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	extend()
	c.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write is the only goroutine writing to the connection.
func (c *Client) write() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var (
			typ  int
			data []byte
		)

		select {
		case msg, ok := <-c.send:
			if !ok {
				c.deadline()
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			typ, data = websocket.TextMessage, msg.Payload
			if msg.Kind == Binary {
				typ = websocket.BinaryMessage
			}
		case <-ping.C:
			typ = websocket.PingMessage
		}

		c.deadline()
		if err := c.conn.WriteMessage(typ, data); err != nil {
			return
		}
	}
}

func (c *Client) deadline() {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
}
