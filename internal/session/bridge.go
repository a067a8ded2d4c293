package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const bridgeChannel = "collab:events"

// bridgeEvent is the envelope relayed between instances over Redis.
type bridgeEvent struct {
	InstanceID string          `json:"instanceId"`
	DocumentID uint            `json:"documentId"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Bridge relays room broadcasts between server instances through Redis
// pub/sub, so collaborators connected to different instances still see each
// other's updates. Delivery is best effort; each instance remains
// authoritative only for its own connections.
type Bridge struct {
	rdb        *redis.Client
	hub        *Hub
	instanceID string
	logger     *zap.Logger
	cancel     context.CancelFunc
}

func NewBridge(rdb *redis.Client, hub *Hub, logger *zap.Logger) *Bridge {
	b := &Bridge{
		rdb:        rdb,
		hub:        hub,
		instanceID: uuid.New().String(),
		logger:     logger,
	}
	hub.SetBridge(b)

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.subscribe(ctx)
	return b
}

// Publish relays a room broadcast to the other instances.
func (b *Bridge) Publish(documentID uint, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to marshal bridge event", zap.Error(err))
		return
	}
	msg, err := json.Marshal(bridgeEvent{
		InstanceID: b.instanceID,
		DocumentID: documentID,
		Event:      event,
		Payload:    raw,
		Timestamp:  time.Now(),
	})
	if err != nil {
		b.logger.Error("failed to marshal bridge envelope", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, bridgeChannel, msg).Err(); err != nil {
		b.logger.Error("failed to publish bridge event", zap.Error(err))
	}
}

func (b *Bridge) subscribe(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *Bridge) handleMessage(payload string) {
	var event bridgeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Error("failed to decode bridge event", zap.Error(err))
		return
	}
	if event.InstanceID == b.instanceID {
		return // our own publication
	}
	b.hub.broadcastLocal(event.DocumentID, event.Event, json.RawMessage(event.Payload))
}

// Close stops the subscriber loop.
func (b *Bridge) Close() {
	b.cancel()
}
