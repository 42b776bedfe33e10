package stream

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/murmur-chat/murmur/internal/hub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxInboundSize = 512
)

// frame is the wire shape of an outbound event.
type frame struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// inbound is the only message clients may send: a typing signal for a
// thread.
type inbound struct {
	Type     string    `json:"type"`
	ThreadId uuid.UUID `json:"thread_id"`
}

// Client bridges one websocket connection to a hub receiver. Outbound
// events flow from the receiver to the socket; the only inbound traffic is
// typing signals, which are handed to the onTyping callback.
type Client struct {
	log      *log.Logger
	conn     *websocket.Conn
	rcv      *hub.Receiver
	onTyping func(context.Context, uuid.UUID)
}

func NewClient(logger *log.Logger, conn *websocket.Conn, rcv *hub.Receiver, onTyping func(context.Context, uuid.UUID)) *Client {
	return &Client{
		log:      logger,
		conn:     conn,
		rcv:      rcv,
		onTyping: onTyping,
	}
}

// Run pumps the connection until either side goes away, then tears both
// pumps down. It blocks for the lifetime of the connection.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.readPump(ctx, cancel)
	c.writePump(ctx)
}

func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxInboundSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Printf("websocket read error: %s", err)
			}
			return
		}

		if in.Type == "typing" && c.onTyping != nil && in.ThreadId != uuid.Nil {
			c.onTyping(ctx, in.ThreadId)
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.writeClose(websocket.CloseNormalClosure, "")
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, open := <-c.rcv.Events():
			if !open {
				c.writeClose(websocket.CloseNormalClosure, "")
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame{Kind: ev.Kind, Data: ev.Payload}); err != nil {
				return
			}

			if c.rcv.Lagged() {
				c.log.Print("closing lagged websocket client")
				c.writeClose(websocket.CloseTryAgainLater, "event stream lagged")
				return
			}
		}
	}
}

func (c *Client) writeClose(code int, reason string) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
