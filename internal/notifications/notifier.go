// Package notifications publishes notification events to Redis so external
// consumers can fan them out. Delivery is best-effort.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"pulse/internal/middleware"
	"pulse/internal/models"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Event is the payload published for every stored notification.
type Event struct {
	ID          string                  `json:"id"`
	RecipientID string                  `json:"recipientId"`
	SenderID    string                  `json:"senderId"`
	Type        models.NotificationType `json:"type"`
	PostID      *string                 `json:"postId,omitempty"`
	Message     string                  `json:"message"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// EventFrom builds the published payload for a stored notification.
func EventFrom(n *models.Notification) Event {
	return Event{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		SenderID:    n.SenderID,
		Type:        n.Type,
		PostID:      n.PostID,
		Message:     n.Message,
		CreatedAt:   n.CreatedAt,
	}
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends the event to the recipient's channel. A nil client is a no-op.
func (n *Notifier) PublishUser(ctx context.Context, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(event.RecipientID), payload).Err()
}

// StartPatternSubscriber subscribes to `notifications:user:*` and calls onMessage
// with the recipient id and decoded event until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(recipientID string, event Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	// Wait for the subscription to be confirmed so no early publish is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					middleware.Logger.Warn("dropping malformed notification event",
						slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(strings.TrimPrefix(msg.Channel, userChannelPrefix), event)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}
