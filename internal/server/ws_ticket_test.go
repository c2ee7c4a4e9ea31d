package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueWSTicket(t *testing.T) {
	_, app := newTestServer(t)

	token, _ := signupAndLogin(t, app, "Alice", "alice@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ticket, ok := body["ticket"].(string)
	require.True(t, ok)
	require.NotEmpty(t, ticket)

	// The ticket authenticates a request once.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Single-use: the second presentation falls through and fails without a JWT.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIssueWSTicketRequiresAuth(t *testing.T) {
	_, app := newTestServer(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/ws/ticket", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInvalidTicketOnWSPathRejected(t *testing.T) {
	_, app := newTestServer(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/ws/?ticket=bogus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
