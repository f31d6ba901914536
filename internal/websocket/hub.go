package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is the wire frame for every realtime message.
type Envelope struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

type message struct {
	channel string
	data    []byte
}

// Client represents a single connected WebSocket client with its channel
// subscriptions (e.g. "request:<id>", "product:<id>", or "*" for everything).
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	Channels map[string]bool
}

func (c *Client) subscribed(channel string) bool {
	return c.Channels["*"] || c.Channels[channel]
}

// Hub maintains the set of active clients and routes published envelopes to
// the subscribers of each channel. Delivery is at-most-once and non-durable:
// a slow or offline client simply misses the frame.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Publish marshals an envelope and hands it to the dispatch loop. Fire and
// forget — a full dispatch queue drops the frame rather than blocking the
// caller.
func (h *Hub) Publish(channel, event string, payload interface{}) {
	envelope := Envelope{
		Channel: channel,
		Event:   event,
		Payload: payload,
		SentAt:  time.Now(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Println("WebSocket publish: marshal failed:", err)
		return
	}
	select {
	case h.broadcast <- message{channel: channel, data: data}:
	default:
		log.Println("WebSocket publish: dispatch queue full, dropping frame for", channel)
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Println("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.subscribed(msg.channel) {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		// Just reading to keep connection alive or handle client messages if necessary
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
	}
}

// ServeWs handles websocket requests from the peer. Subscriptions come from
// the comma-separated `channels` query param; absent means everything.
func ServeWs(hub *Hub, c *gin.Context) {
	channels := map[string]bool{}
	raw := c.Query("channels")
	if raw == "" {
		channels["*"] = true
	} else {
		for _, ch := range strings.Split(raw, ",") {
			ch = strings.TrimSpace(ch)
			if ch != "" {
				channels[ch] = true
			}
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), Channels: channels}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
