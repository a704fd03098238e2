package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/models"
	"github.com/aptomart/aptomart-api/internal/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins (for development)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// BidMessage is a bid placed over the socket.
type BidMessage struct {
	AuctionID uint64  `json:"auction_id"`
	Amount    float64 `json:"amount"`
}

type tickMessage struct {
	Now int64 `json:"now"`
}

// targetedMessage is a message for the watchers of one auction only.
type targetedMessage struct {
	auctionID uint64
	message   []byte
}

// Client represents a WebSocket client connection
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and pushes auction snapshots and
// countdown ticks to them.
type Hub struct {
	// Registered clients; touched only by the Run loop
	clients map[*Client]bool

	// Clients by auction id that they're watching
	mu             sync.Mutex
	auctionClients map[uint64]map[*Client]bool

	broadcast  chan []byte
	targeted   chan targetedMessage
	register   chan *Client
	unregister chan *Client

	// Closed on Stop; broadcasts arriving afterwards (a poll that resolved
	// mid-shutdown) are discarded instead of applied.
	done chan struct{}

	// Closed when the Run loop exits; Stop waits on it so callers returning
	// from Stop can rely on the done path being the only one left.
	stopped chan struct{}

	market *services.MarketService
	tx     *services.TransactionService
	log    *zap.Logger
}

// NewHub creates a new hub
func NewHub(market *services.MarketService, tx *services.TransactionService, log *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		auctionClients: make(map[uint64]map[*Client]bool),
		broadcast:      make(chan []byte),
		targeted:       make(chan targetedMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
		market:         market,
		tx:             tx,
		log:            log,
	}
}

// Run starts the hub loop. Returns when Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.dropSubscriptions(client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		case tm := <-h.targeted:
			for _, client := range h.subscribers(tm.auctionID) {
				// A watcher may have been evicted since it subscribed.
				if !h.clients[client] {
					continue
				}
				h.deliver(client, tm.message)
			}
		case <-h.done:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			close(h.stopped)
			return
		}
	}
}

// Stop shuts the hub down and waits for the run loop to exit; subsequent
// broadcasts are discarded.
func (h *Hub) Stop() {
	close(h.done)
	<-h.stopped
}

// deliver hands a message to one client, evicting it if its send buffer is
// full. Only the Run loop calls this; it owns the clients map and channel
// closes.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
		h.dropSubscriptions(client)
	}
}

// BroadcastAuctions pushes a fresh auction snapshot to every client. Safe to
// call after Stop; the snapshot is then dropped.
func (h *Hub) BroadcastAuctions(snapshot *models.AuctionListResponse) {
	h.send("auctions_update", snapshot)
}

// BroadcastTick pushes the display-refresh tick so client countdowns stay
// current between data polls.
func (h *Hub) BroadcastTick(now time.Time) {
	h.send("tick", tickMessage{Now: now.Unix()})
}

func (h *Hub) send(msgType string, payload any) {
	message, ok := h.encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// broadcastToAuction pushes a message to the clients watching one auction id.
// Routed through the Run loop so channel closes stay single-owner.
func (h *Hub) broadcastToAuction(auctionID uint64, msgType string, payload any) {
	message, ok := h.encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.targeted <- targetedMessage{auctionID: auctionID, message: message}:
	case <-h.done:
	}
}

func (h *Hub) encode(msgType string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshalling broadcast payload", zap.String("type", msgType), zap.Error(err))
		return nil, false
	}
	message, _ := json.Marshal(WebSocketMessage{Type: msgType, Payload: raw})
	return message, true
}

// addClient registers a connection with the run loop. Reports false when the
// hub has already stopped.
func (h *Hub) addClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// removeClient unregisters a connection; a no-op after the hub has stopped.
func (h *Hub) removeClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) subscribers(auctionID uint64) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := make([]*Client, 0, len(h.auctionClients[auctionID]))
	for client := range h.auctionClients[auctionID] {
		watchers = append(watchers, client)
	}
	return watchers
}

func (h *Hub) subscribe(client *Client, auctionID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.auctionClients[auctionID]; !ok {
		h.auctionClients[auctionID] = make(map[*Client]bool)
	}
	h.auctionClients[auctionID][client] = true
}

func (h *Hub) unsubscribe(client *Client, auctionID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.auctionClients[auctionID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.auctionClients, auctionID)
		}
	}
}

func (h *Hub) dropSubscriptions(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for auctionID, clients := range h.auctionClients {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.auctionClients, auctionID)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed",
					zap.String("client", c.id.String()),
					zap.Error(err))
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			c.hub.log.Warn("unparseable websocket message",
				zap.String("client", c.id.String()),
				zap.Error(err))
			continue
		}

		switch wsMessage.Type {
		case "subscribe":
			var auctionID uint64
			if err := json.Unmarshal(wsMessage.Payload, &auctionID); err != nil {
				c.sendError("subscribe payload must be an auction id")
				continue
			}
			c.hub.subscribe(c, auctionID)

		case "unsubscribe":
			var auctionID uint64
			if err := json.Unmarshal(wsMessage.Payload, &auctionID); err != nil {
				c.sendError("unsubscribe payload must be an auction id")
				continue
			}
			c.hub.unsubscribe(c, auctionID)

		case "bid":
			var bid BidMessage
			if err := json.Unmarshal(wsMessage.Payload, &bid); err != nil {
				c.sendError("invalid bid payload")
				continue
			}
			c.placeBid(bid)
		}
	}
}

// placeBid executes the bid through the wallet and, on success, pushes an
// immediately refreshed snapshot rather than waiting for the next poll.
func (c *Client) placeBid(bid BidMessage) {
	hash, err := c.hub.tx.PlaceBid(context.Background(), bid.AuctionID, bid.Amount)
	if err != nil {
		c.hub.log.Warn("bid failed",
			zap.String("client", c.id.String()),
			zap.Uint64("auction_id", bid.AuctionID),
			zap.Error(err))
		c.sendError(err.Error())
		return
	}

	c.sendMessage("bid_placed", TransactionResponse{Hash: hash})

	snapshot, err := c.hub.market.LiveAuctions(context.Background())
	if err != nil {
		c.hub.log.Warn("post-bid refresh failed", zap.Error(err))
		return
	}
	c.hub.BroadcastAuctions(snapshot)

	// Watchers of this auction also get its refreshed entry on its own.
	for _, auction := range snapshot.Auctions {
		if auction.ID == bid.AuctionID {
			c.hub.broadcastToAuction(auction.ID, "auction_update", auction)
			break
		}
	}
}

func (c *Client) sendError(msg string) {
	c.sendMessage("error", errorResponse{Error: msg})
}

func (c *Client) sendMessage(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	message, _ := json.Marshal(WebSocketMessage{Type: msgType, Payload: raw})
	select {
	case c.send <- message:
	default:
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles WebSocket requests from clients
func ServeWs(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			id:   uuid.New(),
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}
		if !hub.addClient(client) {
			conn.Close()
			return
		}

		client.sendMessage("welcome", map[string]string{"client_id": client.id.String()})

		go client.writePump()
		go client.readPump()
	}
}
