package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchmakingStartCreatesAndPairs(t *testing.T) {
	_, app := newTestServer(t)

	tokenA, userA := signupAndLogin(t, app, "Alice", "alice@example.com")
	tokenB, userB := signupAndLogin(t, app, "Bob", "bob@example.com")

	// Empty pool: Alice gets a fresh open room.
	resp, body := doJSON(t, app, http.MethodPost, "/api/matchmaking/start", tokenA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %v", body)
	room := body["room"].(map[string]interface{})
	assert.Equal(t, float64(userA), room["player1_id"])
	assert.Equal(t, "open", room["status"])
	roomID := room["id"]

	// Repeated start returns the same room, no second seat.
	resp, body = doJSON(t, app, http.MethodPost, "/api/matchmaking/start", tokenA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, roomID, body["room"].(map[string]interface{})["id"])

	// Bob's start first-fits into Alice's room.
	resp, body = doJSON(t, app, http.MethodPost, "/api/matchmaking/start", tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room = body["room"].(map[string]interface{})
	assert.Equal(t, roomID, room["id"])
	assert.Equal(t, float64(userB), room["player2_id"])
	assert.Equal(t, "full", room["status"])
}

func TestMatchmakingStartRequiresPresence(t *testing.T) {
	s, app := newTestServer(t)

	token, userID := signupAndLogin(t, app, "Carol", "carol@example.com")

	// Force the user offline behind the coordinator's back.
	require.NoError(t, s.presenceStore.SetPresence(context.Background(), userID, false))

	resp, _ := doJSON(t, app, http.MethodPost, "/api/matchmaking/start", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinFullRoomConflicts(t *testing.T) {
	_, app := newTestServer(t)

	tokenA, _ := signupAndLogin(t, app, "Dave", "dave@example.com")
	tokenB, _ := signupAndLogin(t, app, "Erin", "erin@example.com")
	tokenC, _ := signupAndLogin(t, app, "Frank", "frank@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/matchmaking/rooms", tokenA, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roomID := uint(body["room"].(map[string]interface{})["id"].(float64))

	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/matchmaking/rooms/%d/join", roomID), tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The seat is gone; the loser gets Conflict and retries Start.
	resp, body = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/matchmaking/rooms/%d/join", roomID), tokenC, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/matchmaking/start", tokenC, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, float64(roomID), body["room"].(map[string]interface{})["id"])
}

func TestJoinOwnRoomRejected(t *testing.T) {
	_, app := newTestServer(t)

	token, _ := signupAndLogin(t, app, "Grace", "grace@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/matchmaking/rooms", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roomID := uint(body["room"].(map[string]interface{})["id"].(float64))

	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/matchmaking/rooms/%d/join", roomID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveRoom(t *testing.T) {
	_, app := newTestServer(t)

	tokenA, _ := signupAndLogin(t, app, "Heidi", "heidi@example.com")
	tokenB, _ := signupAndLogin(t, app, "Ivan", "ivan@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/matchmaking/rooms", tokenA, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roomID := uint(body["room"].(map[string]interface{})["id"].(float64))

	// A non-occupant cannot remove it.
	resp, _ = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/matchmaking/rooms/%d", roomID), tokenB, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/matchmaking/rooms/%d", roomID), tokenA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/matchmaking/rooms/%d", roomID), tokenA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOnlineUsersRoster(t *testing.T) {
	_, app := newTestServer(t)

	tokenA, userA := signupAndLogin(t, app, "Judy", "judy@example.com")
	_, userB := signupAndLogin(t, app, "Ken", "ken@example.com")

	resp, body := doJSON(t, app, http.MethodGet, "/api/users/online", tokenA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	users := body["users"].([]interface{})
	ids := make(map[float64]bool, len(users))
	for _, u := range users {
		ids[u.(map[string]interface{})["id"].(float64)] = true
	}
	assert.True(t, ids[float64(userA)])
	assert.True(t, ids[float64(userB)])
}
