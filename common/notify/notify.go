package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	commonredis "github.com/alumnet/alumnet/common/redis"
)

// ReviewQueuedEvent is pushed to admins when a claim escalates to manual review.
type ReviewQueuedEvent struct {
	RequestID string    `json:"requestId"`
	MemberID  string    `json:"memberId"`
	QueuedAt  time.Time `json:"queuedAt"`
}

// Notifier pushes events toward the admin review queue. Push-only: this
// service never polls for the outcome, admins call back through the API.
type Notifier interface {
	ReviewQueued(ctx context.Context, event ReviewQueuedEvent) error
}

// RedisNotifier publishes events on a Redis channel
type RedisNotifier struct {
	redis   *commonredis.Client
	channel string
}

// NewRedisNotifier creates a notifier publishing to the given channel
func NewRedisNotifier(client *commonredis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{
		redis:   client,
		channel: channel,
	}
}

// ReviewQueued publishes the event as JSON
func (n *RedisNotifier) ReviewQueued(ctx context.Context, event ReviewQueuedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal review event: %w", err)
	}

	if err := n.redis.PublishEvent(ctx, n.channel, string(payload)); err != nil {
		return fmt.Errorf("publish review event: %w", err)
	}

	return nil
}

// MemoryNotifier collects events in memory, for tests and Redis-less setups
type MemoryNotifier struct {
	mu     sync.Mutex
	events []ReviewQueuedEvent
}

// NewMemoryNotifier creates an in-memory notifier
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// ReviewQueued records the event
func (n *MemoryNotifier) ReviewQueued(ctx context.Context, event ReviewQueuedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// Events returns a copy of recorded events
func (n *MemoryNotifier) Events() []ReviewQueuedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ReviewQueuedEvent, len(n.events))
	copy(out, n.events)
	return out
}
