// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PresenceWrites counts presence store writes by resulting status.
	PresenceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_presence_writes_total",
		Help: "Total number of presence status writes",
	}, []string{"status"})

	// FriendRequestsSent counts friend requests appended to mailboxes.
	FriendRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lobby_friend_requests_sent_total",
		Help: "Total number of friend requests sent",
	})

	// FriendRequestsResolved counts resolutions by outcome.
	FriendRequestsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_friend_requests_resolved_total",
		Help: "Total number of friend requests resolved by outcome",
	}, []string{"outcome"})

	// MatchmakingStarts counts startMatchmaking calls by result (joined, created, reused).
	MatchmakingStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_matchmaking_starts_total",
		Help: "Total number of matchmaking attempts by result",
	}, []string{"result"})

	// MatchmakingConflicts counts lost conditional joins.
	MatchmakingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lobby_matchmaking_conflicts_total",
		Help: "Total number of room joins lost to a concurrent writer",
	})

	// WebSocketDrops counts outbound event-stream messages dropped per reason.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_websocket_drops_total",
		Help: "Total number of WebSocket messages dropped by reason",
	}, []string{"reason"})

	// WebSocketConnections is the gauge of active event-stream connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_websocket_connections",
		Help: "Number of active WebSocket event-stream connections",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lobby_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
