package notifications

import (
	"context"
	"testing"
	"time"

	"pulse/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishUser_NilClient(t *testing.T) {
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), Event{RecipientID: "u1"})
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	recipients := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(recipientID string, event Event) {
		recipients <- recipientID
		received <- event
	}))

	postID := "p1"
	stored := &models.Notification{
		ID:          "n1",
		RecipientID: "owner",
		SenderID:    "fan",
		Type:        models.NotificationLike,
		PostID:      &postID,
		Message:     "liked your post",
	}
	require.NoError(t, n.PublishUser(ctx, EventFrom(stored)))

	select {
	case ev := <-received:
		assert.Equal(t, "owner", <-recipients)
		assert.Equal(t, "n1", ev.ID)
		assert.Equal(t, models.NotificationLike, ev.Type)
		require.NotNil(t, ev.PostID)
		assert.Equal(t, "p1", *ev.PostID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}
