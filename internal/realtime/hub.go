package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains account_id -> set of dashboard connections and broadcasts
// attendance events. Uses Redis pub/sub for horizontal scaling: local
// broadcast + publish to Redis.
type Hub struct {
	// accountID -> map[clientID]*Client
	accounts map[uuid.UUID]map[uuid.UUID]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per account
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishAccountEvent(accountID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to account channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeAccount(accountID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		accounts: make(map[uuid.UUID]map[uuid.UUID]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an account room. Starts the Redis subscription
// for this account when the first client connects.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.accounts[c.AccountID] == nil {
		h.accounts[c.AccountID] = make(map[uuid.UUID]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeAccount(c.AccountID, func(event string, payload []byte) {
				h.broadcastLocal(c.AccountID, event, payload)
			})
			if err == nil {
				h.subs[c.AccountID] = cancel
			}
		}
	}
	h.accounts[c.AccountID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("dashboard client connected", zap.String("client_id", c.ID.String()), zap.String("account_id", c.AccountID.String()))
}

// Unregister removes a client from its account room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.accounts[c.AccountID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.accounts, c.AccountID)
			if cancel, ok := h.subs[c.AccountID]; ok {
				cancel()
				delete(h.subs, c.AccountID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("dashboard client disconnected", zap.String("client_id", c.ID.String()), zap.String("account_id", c.AccountID.String()))
}

// broadcastLocal sends a message to all local clients in an account room.
func (h *Hub) broadcastLocal(accountID uuid.UUID, event string, payload []byte) {
	msg := WSMessage{Event: event, Data: payload}

	h.mu.RLock()
	clients := h.accounts[accountID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishAccountEvent sends an event to local clients and publishes to Redis
// for other instances. Safe to call from any goroutine; errors are swallowed
// because the feed is advisory.
func (h *Hub) PublishAccountEvent(accountID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.broadcastLocal(accountID, event, data)
	if h.redis != nil {
		_ = h.redis.PublishAccountEvent(accountID, event, data)
	}
}

// ClientCount returns the number of connected dashboard clients for an account.
func (h *Hub) ClientCount(accountID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[accountID])
}
