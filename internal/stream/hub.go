package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const feedChannel = "fieldtrack:feed"

// Hub fans every accepted position update out to all connected
// dashboard subscribers. It holds no session semantics; visit-open
// validation happens before anything reaches Broadcast. With redis
// configured, hubs on different instances relay through pub/sub.
type Hub struct {
	id          string
	redis       *redis.Client
	subscribers map[*Subscriber]struct{}
	mu          sync.RWMutex
}

type Subscriber struct {
	Send chan []byte
}

// relayMessage wraps cross-instance payloads so a hub can skip its own
// publications.
type relayMessage struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:          uuid.NewString(),
		redis:       redisClient,
		subscribers: map[*Subscriber]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.Send)
	}
}

// Broadcast delivers a payload to every local subscriber and relays it
// to peer instances. A subscriber that cannot keep up is skipped;
// receivers reconcile by sample timestamp.
func (h *Hub) Broadcast(payload []byte) {
	h.deliver(payload)

	if h.redis != nil {
		msg, _ := json.Marshal(relayMessage{Origin: h.id, Payload: payload})
		if err := h.redis.Publish(context.Background(), feedChannel, msg).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.Subscribe(context.Background(), feedChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var relay relayMessage
		if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil {
			continue
		}
		if relay.Origin == h.id {
			continue
		}
		h.deliver(relay.Payload)
	}
}
