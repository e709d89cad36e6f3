package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans progress payloads for an upload out to websocket clients.
// When redis is configured, payloads are also published so clients
// attached to another instance receive them.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UploadID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.relayRedis()
	}
	return h
}

func (h *Hub) Register(uploadID string) *Client {
	client := &Client{
		UploadID: uploadID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[uploadID] == nil {
		h.clients[uploadID] = map[*Client]struct{}{}
	}
	h.clients[uploadID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if uploadClients, ok := h.clients[client.UploadID]; ok {
		delete(uploadClients, client)
		if len(uploadClients) == 0 {
			delete(h.clients, client.UploadID)
		}
	}
	close(client.Send)
}

// Broadcast delivers the payload to local clients and mirrors it to
// redis. Slow clients drop frames rather than blocking the caller.
// Local clients may see a frame twice when the relay echoes our own
// publish; frames are full snapshots, so replays are harmless.
func (h *Hub) Broadcast(uploadID string, payload []byte) {
	h.deliver(uploadID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), ProgressChannel(uploadID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(uploadID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[uploadID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) relayRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "gpx:*:progress")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		uploadID := uploadIDFromChannel(msg.Channel)
		if uploadID == "" {
			continue
		}
		h.deliver(uploadID, []byte(msg.Payload))
	}
}

// ProgressChannel is the redis channel carrying snapshots for one
// upload.
func ProgressChannel(uploadID string) string {
	return "gpx:" + uploadID + ":progress"
}

func uploadIDFromChannel(ch string) string {
	const prefix = "gpx:"
	const suffix = ":progress"
	if !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) {
		return ""
	}
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
