// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// SocketClient is the websocket transport, adapted from
// server/socket_client.go: same ping/pong deadlines, same read-limit, same
// readPump/writePump goroutine split, generalized to dispatch both binary
// PlayerInput frames and textual JSON control messages instead of mk48's
// JSON-only wire.
package game

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ashgrove/voxelkeep/internal/netmsg"
	"github.com/ashgrove/voxelkeep/internal/wire"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the configured domain once one exists.
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// binaryFrame marks an already-encoded outbound payload as a binary
// websocket message rather than JSON text.
type binaryFrame []byte

// SocketClient is a middleman between a websocket connection and the Hub.
type SocketClient struct {
	ClientData
	conn *websocket.Conn
	send chan interface{}
	once sync.Once
}

// NewSocketClient wraps conn.
func NewSocketClient(conn *websocket.Conn) *SocketClient {
	return &SocketClient{
		conn: conn,
		send: make(chan interface{}, 16),
	}
}

func (c *SocketClient) Close() {
	close(c.send)
}

func (c *SocketClient) Data() *ClientData {
	return &c.ClientData
}

func (c *SocketClient) Destroy() {
	c.once.Do(func() {
		hub := c.Hub
		if hub != nil {
			select {
			case hub.unregister <- c:
			default:
				go func() { hub.unregister <- c }()
			}
		}
		_ = c.conn.Close()
	})
}

func (c *SocketClient) Init() {
	go c.writePump()
	go c.readPump()
}

func (c *SocketClient) SendJSON(v interface{}) {
	c.enqueue(v)
}

func (c *SocketClient) SendBinary(b []byte) {
	c.enqueue(binaryFrame(b))
}

func (c *SocketClient) enqueue(v interface{}) {
	select {
	case c.send <- v:
	default:
		// Not responsive.
		c.Destroy()
	}
}

func (c *SocketClient) readPump() {
	defer c.Destroy()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Println("game: close error:", err)
			}
			return
		}

		hub := c.Hub
		if hub == nil {
			continue
		}

		switch messageType {
		case websocket.BinaryMessage:
			input, decErr := wire.DecodePlayerInput(data)
			if decErr != nil {
				log.Println("game: malformed PlayerInput:", decErr)
				continue
			}
			hub.inbound <- signedInbound{client: c, input: &input}
		case websocket.TextMessage:
			msg, decErr := netmsg.Decode(data)
			if decErr != nil {
				log.Println("game: malformed JSON message:", decErr)
				continue
			}
			hub.inbound <- signedInbound{client: c, json: msg}
		}
	}
}

func (c *SocketClient) writePump() {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		c.Destroy()
	}()

	for {
		select {
		case out, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			if bin, ok := out.(binaryFrame); ok {
				if err := c.conn.WriteMessage(websocket.BinaryMessage, bin); err != nil {
					return
				}
				continue
			}

			encoded, err := netmsg.Encode(out)
			if err != nil {
				log.Println("game: encoding error:", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
				return
			}
		case <-pingTicker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
