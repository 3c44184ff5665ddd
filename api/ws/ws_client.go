package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Snapshots arrive as data URLs,
	// which dwarf individual stroke messages.
	maxMessageSize = 1024 * 512

	// Rate limiting: pointer-driven stroke traffic is bursty
	messagesPerSecond = 60
	burstLimit        = 120
)

type MessageHandler func(client *Client, messageType int, messageBytes []byte)

func NewClient(hub *Hub, conn *websocket.Conn, socketID string, handler MessageHandler, onDisconnect func(*Client)) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		socketID:     socketID,
		handler:      handler,
		onDisconnect: onDisconnect,
		rooms:        make(map[string]struct{}),
		Send:         make(chan []byte, 128),
		limiter:      rate.NewLimiter(rate.Limit(messagesPerSecond), burstLimit),
	}
}

// Client is a middleman between the websocket connection and the hub. The
// socket id is the connection's identity for membership bookkeeping; a
// reconnecting user gets a fresh one.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	socketID     string
	handler      MessageHandler
	onDisconnect func(*Client)
	Send         chan []byte // Buffered channel of outbound messages.
	limiter      *rate.Limiter

	mu    sync.Mutex
	rooms map[string]struct{}
}

func (c *Client) SocketID() string {
	return c.socketID
}

func (c *Client) trackRoom(code string) {
	c.mu.Lock()
	c.rooms[code] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) forgetRoom(code string) {
	c.mu.Lock()
	delete(c.rooms, code)
	c.mu.Unlock()
}

// Rooms returns the codes of every room this connection has joined.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	codes := make([]string, 0, len(c.rooms))
	for code := range c.rooms {
		codes = append(codes, code)
	}
	return codes
}

func (c *Client) roomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

func (c *Client) ReadPump() {
	defer func() {
		if c.onDisconnect != nil {
			c.onDisconnect(c)
		}
		c.hub.CloseCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		messageType, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS close error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("Closing connection %s: message rate limit exceeded", c.socketID)
			break
		}

		c.handler(c, messageType, messageBytes)
	}
}

func (c *Client) WritePump(shutdownCtx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WS send error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-shutdownCtx.Done():
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Websocket service shutting down"),
			)
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
