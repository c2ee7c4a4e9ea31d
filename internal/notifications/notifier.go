// Package notifications delivers lobby events to connected clients: friend
// requests land in the recipient's event stream the moment they are written,
// and both seats of a filled room hear about the match.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"lobby/internal/models"

	"github.com/redis/go-redis/v9"
)

// Event types carried on the per-user channels.
const (
	EventFriendRequestReceived = "friend_request_received"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRequestDeclined = "friend_request_declined"
	EventMatchFound            = "match_found"
	EventRoomClosed            = "room_closed"
)

// Event is the wire shape of one lobby event.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Notifier publishes lobby events into per-user Redis channels so every node
// holding a connection for the user can forward them.
type Notifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewNotifier returns a Notifier over the given Redis client. A nil client
// turns every publish into a no-op, which keeps tests and single-node dev
// setups simple.
func NewNotifier(rdb *redis.Client, logger *slog.Logger) *Notifier {
	return &Notifier{rdb: rdb, logger: logger}
}

func userChannel(userID uint) string {
	return fmt.Sprintf("lobby:user:%d", userID)
}

func (n *Notifier) publish(ctx context.Context, userID uint, event Event) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, userChannel(userID), string(payload)).Err()
}

// FriendRequestReceived tells the recipient a request landed in their mailbox.
func (n *Notifier) FriendRequestReceived(ctx context.Context, req *models.FriendRequest) error {
	return n.publish(ctx, req.ToUserID, Event{Type: EventFriendRequestReceived, Payload: req})
}

// FriendRequestAccepted tells the original sender their request was accepted.
func (n *Notifier) FriendRequestAccepted(ctx context.Context, req *models.FriendRequest) error {
	return n.publish(ctx, req.FromUserID, Event{Type: EventFriendRequestAccepted, Payload: req})
}

// FriendRequestDeclined tells the original sender their request was declined.
func (n *Notifier) FriendRequestDeclined(ctx context.Context, req *models.FriendRequest) error {
	return n.publish(ctx, req.FromUserID, Event{Type: EventFriendRequestDeclined, Payload: req})
}

// MatchFound tells both seats of a filled room that the match is on.
func (n *Notifier) MatchFound(ctx context.Context, room *models.MatchRoom) error {
	if err := n.publish(ctx, room.Player1ID, Event{Type: EventMatchFound, Payload: room}); err != nil {
		return err
	}
	if room.Player2ID == nil {
		return nil
	}
	return n.publish(ctx, *room.Player2ID, Event{Type: EventMatchFound, Payload: room})
}

// RoomClosed tells the remaining occupants a room was withdrawn or claimed.
func (n *Notifier) RoomClosed(ctx context.Context, room *models.MatchRoom, exceptUserID uint) error {
	occupants := []uint{room.Player1ID}
	if room.Player2ID != nil {
		occupants = append(occupants, *room.Player2ID)
	}
	for _, id := range occupants {
		if id == exceptUserID {
			continue
		}
		if err := n.publish(ctx, id, Event{Type: EventRoomClosed, Payload: room}); err != nil {
			return err
		}
	}
	return nil
}

// StartSubscriber subscribes to the per-user pattern and invokes onMessage
// for each event until ctx is cancelled. onMessage panics are contained so
// one bad payload cannot kill the delivery loop.
func (n *Notifier) StartSubscriber(
	ctx context.Context, onMessage func(channel, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "lobby:user:*")
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							n.logger.Error("panic in event subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
