package notifications

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"lobby/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	client, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.True(t, hub.Connected(10))

	hub.Unregister(client)
	assert.False(t, hub.Connected(10))

	// Unregistering twice is harmless.
	hub.Unregister(client)
	assert.False(t, hub.Connected(10))
}

func TestHubPerUserConnectionLimit(t *testing.T) {
	hub := NewHub(slog.Default())

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(20, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(20, nil)
	assert.Error(t, err)

	// Another user is unaffected.
	_, err = hub.Register(21, nil)
	assert.NoError(t, err)
}

func TestHubSendReachesEveryConnection(t *testing.T) {
	hub := NewHub(slog.Default())

	clientA, err := hub.Register(30, nil)
	require.NoError(t, err)
	clientB, err := hub.Register(30, nil)
	require.NoError(t, err)
	other, err := hub.Register(31, nil)
	require.NoError(t, err)

	hub.Send(30, `{"type":"match_found"}`)

	assert.Len(t, clientA.send, 1)
	assert.Len(t, clientB.send, 1)
	assert.Empty(t, other.send)
}

func TestHubWiringForwardsEvents(t *testing.T) {
	n, _ := newTestNotifier(t)
	hub := NewHub(slog.Default())

	client, err := hub.Register(2, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	req := &models.FriendRequest{ID: 1, FromUserID: 1, ToUserID: 2, Status: models.RequestPending}
	require.NoError(t, n.FriendRequestReceived(context.Background(), req))

	assert.Eventually(t, func() bool {
		return len(client.send) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHubShutdownClearsConnections(t *testing.T) {
	hub := NewHub(slog.Default())

	_, err := hub.Register(40, nil)
	require.NoError(t, err)
	_, err = hub.Register(41, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.False(t, hub.Connected(40))
	assert.False(t, hub.Connected(41))
}
