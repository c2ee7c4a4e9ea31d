package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"lobby/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (*Notifier, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewNotifier(rdb, slog.Default()), rdb
}

func TestNotifierNilClientIsNoOp(t *testing.T) {
	n := NewNotifier(nil, slog.Default())
	req := &models.FriendRequest{ID: 1, FromUserID: 1, ToUserID: 2}
	assert.NoError(t, n.FriendRequestReceived(context.Background(), req))
	assert.NoError(t, n.StartSubscriber(context.Background(), nil))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "lobby:user:1", userChannel(1))
	assert.Equal(t, "lobby:user:100", userChannel(100))
}

func TestFriendRequestEventsAddressTheRightUser(t *testing.T) {
	n, rdb := newTestNotifier(t)
	ctx := context.Background()

	subTo := rdb.Subscribe(ctx, userChannel(2))
	defer func() { _ = subTo.Close() }()
	subFrom := rdb.Subscribe(ctx, userChannel(1))
	defer func() { _ = subFrom.Close() }()
	_, err := subTo.Receive(ctx)
	require.NoError(t, err)
	_, err = subFrom.Receive(ctx)
	require.NoError(t, err)

	req := &models.FriendRequest{ID: 7, FromUserID: 1, ToUserID: 2, Status: models.RequestPending}

	require.NoError(t, n.FriendRequestReceived(ctx, req))
	msg, err := subTo.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, EventFriendRequestReceived, event.Type)

	require.NoError(t, n.FriendRequestAccepted(ctx, req))
	msg, err = subFrom.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, EventFriendRequestAccepted, event.Type)
}

func TestMatchFoundReachesBothSeats(t *testing.T) {
	n, _ := newTestNotifier(t)
	ctx := context.Background()

	var received int32
	require.NoError(t, n.StartSubscriber(ctx, func(channel, payload string) {
		atomic.AddInt32(&received, 1)
	}))

	p2 := uint(4)
	room := &models.MatchRoom{ID: 3, Player1ID: 3, Player2ID: &p2, Status: models.RoomFull}
	require.NoError(t, n.MatchFound(ctx, room))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRoomClosedSkipsTheActor(t *testing.T) {
	n, rdb := newTestNotifier(t)
	ctx := context.Background()

	subP1 := rdb.Subscribe(ctx, userChannel(5))
	defer func() { _ = subP1.Close() }()
	_, err := subP1.Receive(ctx)
	require.NoError(t, err)

	p2 := uint(6)
	room := &models.MatchRoom{ID: 9, Player1ID: 5, Player2ID: &p2, Status: models.RoomClosed}

	// Player 6 closed the room; only player 5 should hear about it.
	require.NoError(t, n.RoomClosed(ctx, room, 6))

	msg, err := subP1.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, EventRoomClosed, event.Type)
}

func TestSubscriberStopsOnCancel(t *testing.T) {
	n, _ := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	require.NoError(t, n.StartSubscriber(ctx, func(_, _ string) {
		atomic.AddInt32(&received, 1)
	}))

	req := &models.FriendRequest{ID: 1, FromUserID: 1, ToUserID: 2}
	require.NoError(t, n.FriendRequestReceived(context.Background(), req))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	before := atomic.LoadInt32(&received)

	require.NoError(t, n.FriendRequestReceived(context.Background(), req))
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&received) > before
	}, 200*time.Millisecond, 10*time.Millisecond)
}
