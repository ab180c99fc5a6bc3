// Package feed streams domain events to observers over WebSocket. The hub
// subscribes to every event on the bus, wraps each one in a kind-tagged JSON
// envelope, and fans it out to all connected clients. A slow client is
// disconnected rather than allowed to stall the broadcast.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/pkg/types"
)

// Envelope is the wire format for one streamed event.
type Envelope struct {
	Kind  types.EventKind `json:"kind"`
	Clock string          `json:"clock,omitempty"`
	Event types.Event     `json:"event"`
}

// Hub manages WebSocket connections and broadcasts event envelopes.
type Hub struct {
	clients    map[clientInterface]bool
	broadcast  chan Envelope
	register   chan clientInterface
	unregister chan clientInterface
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc

	// token, when non-empty, is required as a bearer credential on upgrade.
	token string
	// limiter throttles upgrade attempts, not event delivery.
	limiter *rate.Limiter
}

// clientInterface allows for both real clients and mock clients.
type clientInterface interface {
	getSendChannel() chan []byte
	close()
}

// Client represents one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) getSendChannel() chan []byte {
	return c.send
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewHub creates a feed hub. An empty token disables authentication
// (development mode).
func NewHub(token string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[clientInterface]bool),
		broadcast:  make(chan Envelope, 256),
		register:   make(chan clientInterface),
		unregister: make(chan clientInterface),
		ctx:        ctx,
		cancel:     cancel,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}
}

// SubscribeTo registers the hub as a wildcard handler on the bus.
func (h *Hub) SubscribeTo(b *bus.EventBus) {
	b.Subscribe(types.KindAny, h.HandleEvent)
}

// HandleEvent is the bus handler: it wraps the event and queues it for
// broadcast. A full broadcast queue drops the event with a warning; the
// feed is observability, not a durable stream.
func (h *Hub) HandleEvent(ctx context.Context, event types.Event, world *types.World) error {
	env := Envelope{Kind: event.Kind(), Event: event}
	if world != nil {
		env.Clock = world.Clock.String()
	}
	select {
	case h.broadcast <- env:
	default:
		log.Println("WARNING: event feed broadcast channel full, dropping event")
	}
	return nil
}

// Run starts the hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("feed: client connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.getSendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("feed: client disconnected (total: %d)", count)

		case env := <-h.broadcast:
			data, err := json.Marshal(env)
			if err != nil {
				log.Printf("ERROR: failed to marshal feed envelope: %v", err)
				continue
			}

			// Full lock: slow clients are deleted from the map below.
			h.mu.Lock()
			for client := range h.clients {
				sendChan := client.getSendChannel()
				select {
				case sendChan <- data:
				default:
					close(sendChan)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			log.Println("feed: hub stopping...")
			return
		}
	}
}

// Stop gracefully shuts down the hub and disconnects all clients.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.getSendChannel())
		client.close()
	}
	h.clients = make(map[clientInterface]bool)
	h.mu.Unlock()
}

// Register adds a client to the hub. After Stop it is a no-op so late
// callers cannot block on a loop that is no longer draining the channel.
func (h *Hub) Register(client clientInterface) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub. No-op after Stop; the shutdown
// path closes every remaining client itself.
func (h *Hub) Unregister(client clientInterface) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ServeHTTP handles WebSocket upgrade requests. Requests must carry the
// bearer token when one is configured, and upgrades are rate limited.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}
	if h.token != "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != h.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("ERROR: feed upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// writePump sends queued envelopes to the WebSocket connection.
func (c *Client) writePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()

		if err != nil {
			log.Printf("ERROR: feed write failed: %v", err)
			return
		}
	}
}

// readPump drains the connection to detect disconnects. The feed is
// one-directional; client messages are ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			return
		}
	}
}

// MockClient is a test double that captures broadcast payloads.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) getSendChannel() chan []byte {
	return m.SendChan
}

func (m *MockClient) close() {}
