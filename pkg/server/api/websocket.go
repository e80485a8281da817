package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/StrathCole/pricefeed/pkg/logging"
	"github.com/StrathCole/pricefeed/pkg/server/feed"
	"github.com/StrathCole/pricefeed/pkg/server/sources"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WebSocketServer streams feed resolutions to WebSocket clients.
type WebSocketServer struct {
	addr     string
	store    feed.Store
	logger   *logging.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	// Client management
	mu      sync.RWMutex
	clients map[*WebSocketClient]bool
}

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	conn             *websocket.Conn
	send             chan []byte
	server           *WebSocketServer
	subscribedAll    bool
	subscribedAssets map[string]bool
	mu               sync.RWMutex
}

// WebSocketMessage represents a client message.
type WebSocketMessage struct {
	Type   string   `json:"type"`   // "subscribe", "unsubscribe", "ping"
	Assets []string `json:"assets"` // assets to (un)subscribe; empty or "*" means all
}

// PriceUpdateMessage is sent to clients.
type PriceUpdateMessage struct {
	Type      string          `json:"type"`      // "price_update"
	Timestamp string          `json:"timestamp"` // ISO 8601 timestamp
	Prices    []PriceResponse `json:"prices"`
}

// NewWebSocketServer creates a new WebSocket server. New clients receive
// the contents of store before live updates; store may be nil.
func NewWebSocketServer(addr string, store feed.Store, logger *logging.Logger) *WebSocketServer {
	return &WebSocketServer{
		addr:   addr,
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// Allow all origins (configure CORS as needed)
				return true
			},
		},
		clients: make(map[*WebSocketClient]bool),
	}
}

// Handler returns the WebSocket route.
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start starts the WebSocket server.
func (s *WebSocketServer) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the WebSocket server and disconnects all clients.
func (s *WebSocketServer) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		s.logger.Info("Stopping WebSocket server")
		err = s.server.Shutdown(ctx)
	}

	s.mu.Lock()
	for client := range s.clients {
		delete(s.clients, client)
		close(client.send)
	}
	s.mu.Unlock()
	return err
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Publish sends a resolution to every client subscribed to its asset.
// It never blocks; clients with a full buffer miss the update.
func (s *WebSocketServer) Publish(result *feed.Result) {
	data, err := encodeUpdate([]*feed.Result{result})
	if err != nil {
		s.logger.Error("Failed to marshal price update", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if client.shouldReceive(result.Asset) {
			select {
			case client.send <- data:
			default:
				s.logger.Warn("Client send buffer full, skipping update", "remote", client.conn.RemoteAddr().String())
			}
		}
	}
}

func encodeUpdate(results []*feed.Result) ([]byte, error) {
	prices := make([]PriceResponse, len(results))
	for i, r := range results {
		prices[i] = NewPriceResponse(r)
	}
	return json.Marshal(PriceUpdateMessage{
		Type:      "price_update",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Prices:    prices,
	})
}

// handleWebSocket handles new WebSocket connections.
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &WebSocketClient{
		conn:             conn,
		send:             make(chan []byte, 256),
		server:           s,
		subscribedAll:    true, // Subscribe to all by default
		subscribedAssets: make(map[string]bool),
	}

	s.sendSnapshot(r.Context(), client)
	s.registerClient(client)

	// Start client goroutines
	go client.writePump()
	go client.readPump()

	s.logger.Info("New WebSocket client connected", "remote", conn.RemoteAddr().String())
}

// sendSnapshot queues the stored resolutions for a new client.
func (s *WebSocketServer) sendSnapshot(ctx context.Context, client *WebSocketClient) {
	if s.store == nil {
		return
	}
	results, err := s.store.All(ctx)
	if err != nil {
		s.logger.Warn("Failed to read snapshot", "error", err)
		return
	}
	if len(results) == 0 {
		return
	}
	data, err := encodeUpdate(results)
	if err != nil {
		s.logger.Error("Failed to marshal snapshot", "error", err)
		return
	}
	client.send <- data
}

// registerClient adds a client to the server.
func (s *WebSocketServer) registerClient(client *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// unregisterClient removes a client from the server.
func (s *WebSocketServer) unregisterClient(client *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
}

// writePump sends messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Error("Failed to write message", "error", err)
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

// readPump reads messages from the WebSocket connection.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.server.unregisterClient(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage processes client messages.
func (c *WebSocketClient) handleMessage(data []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.server.logger.Warn("Invalid client message", "error", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(msg.Assets)
	case "unsubscribe":
		c.unsubscribe(msg.Assets)
	case "ping":
		c.sendPong()
	default:
		c.server.logger.Warn("Unknown message type", "type", msg.Type)
	}
}

func isWildcard(assets []string) bool {
	return len(assets) == 0 || (len(assets) == 1 && assets[0] == "*")
}

// subscribe subscribes to specific assets.
func (c *WebSocketClient) subscribe(assets []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isWildcard(assets) {
		c.subscribedAll = true
		c.subscribedAssets = make(map[string]bool)
	} else {
		c.subscribedAll = false
		for _, asset := range assets {
			c.subscribedAssets[sources.NormalizeSymbol(asset)] = true
		}
	}

	c.server.logger.Debug("Client subscribed", "assets", assets)
}

// unsubscribe unsubscribes from specific assets.
func (c *WebSocketClient) unsubscribe(assets []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isWildcard(assets) {
		c.subscribedAll = false
		c.subscribedAssets = make(map[string]bool)
	} else {
		for _, asset := range assets {
			delete(c.subscribedAssets, sources.NormalizeSymbol(asset))
		}
	}

	c.server.logger.Debug("Client unsubscribed", "assets", assets)
}

// shouldReceive checks if client should receive updates for asset.
func (c *WebSocketClient) shouldReceive(asset string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscribedAll || c.subscribedAssets[asset]
}

// sendPong sends a pong response.
func (c *WebSocketClient) sendPong() {
	pong := map[string]string{"type": "pong"}
	data, _ := json.Marshal(pong)

	// Stop may have closed the send channel already.
	c.server.mu.RLock()
	defer c.server.mu.RUnlock()
	if !c.server.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
