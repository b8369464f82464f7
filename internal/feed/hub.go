// Package feed broadcasts committed curve trades to websocket clients.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"launchpad/internal/handlers/business"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// Per-client queue; a client that falls this far behind is dropped.
	sendBufferSize = 64
	// Queue between the trading service and the hub loop.
	broadcastBufferSize = 256
)

// Client is one websocket subscriber. An empty token receives every trade.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	token string
}

type message struct {
	token string
	data  []byte
}

// Hub fans trade events out to registered clients. NotifyTrade never blocks the
// caller; events are dropped when the hub is not keeping up.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	clients    map[*Client]bool
	done       chan struct{}

	mu      sync.RWMutex
	running bool
	count   int
	wg      sync.WaitGroup
}

// NewHub creates a hub. checkOrigin may be nil to accept every origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, broadcastBufferSize),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every connection and
// waits for the client goroutines to exit. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
		close(h.done)
		for c := range h.clients {
			h.drop(c)
		}
		h.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
			h.setCount(len(h.clients))
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}
		case m := <-h.broadcast:
			for c := range h.clients {
				if c.token != "" && c.token != m.token {
					continue
				}
				select {
				case c.send <- m.data:
				default:
					log.WithFields(log.Fields{
						"remote": c.conn.RemoteAddr().String(),
					}).Warn("Trade feed client too slow, dropping")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// NotifyTrade implements business.TradeNotifier.
func (h *Hub) NotifyTrade(event business.TradeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Failed to encode trade event: %v", err)
		return
	}
	select {
	case h.broadcast <- message{token: strings.ToLower(event.TokenAddress), data: data}:
	default:
		log.WithFields(log.Fields{"trade_id": event.TradeID}).Warn("Trade feed backlog full, event dropped")
	}
}

// ServeWS upgrades the request and registers the connection. ?token= limits the
// stream to one token address.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		http.Error(w, "trade feed is not running", http.StatusServiceUnavailable)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token != "" {
		normalized, err := business.NormalizeAddress(token)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		token = strings.ToLower(normalized)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	// Add only while running, so it cannot race the Wait in Run.
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.wg.Add(2)
	h.mu.Unlock()

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize), token: token}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		h.wg.Add(-2)
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump discards client messages and keeps the read deadline moving on pongs.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.wg.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("Trade feed client closed: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.wg.Done()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
