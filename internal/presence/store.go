// Package presence tracks each user's online status in the shared Redis store.
// There is no local caching: every read queries the store, so all instances
// observe the same status.
package presence

import (
	"context"
	"errors"
	"strconv"

	"lobby/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Status is a user's presence as seen by the store.
type Status string

const (
	// Online indicates the user has an active session.
	Online Status = "online"
	// Offline indicates the user signed out.
	Offline Status = "offline"
	// Unknown indicates the store has never seen the user.
	Unknown Status = "unknown"
)

const (
	statusKeyPrefix = "presence:user:"
	onlineSetKey    = "presence:online"
)

// Store is the presence contract the rest of the application depends on.
type Store interface {
	SetPresence(ctx context.Context, userID uint, online bool) error
	GetPresence(ctx context.Context, userID uint) (Status, error)
	OnlineUserIDs(ctx context.Context) ([]uint, error)
}

// RedisStore implements Store on a Redis client.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a presence store backed by the given client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// SetPresence overwrites the user's status. Unknown users are created on
// write; repeating a write is a no-op at the store level.
func (s *RedisStore) SetPresence(ctx context.Context, userID uint, online bool) error {
	if s.rdb == nil {
		return errors.New("presence store unavailable")
	}

	uid := strconv.FormatUint(uint64(userID), 10)
	status := Offline
	if online {
		status = Online
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, statusKey(userID), string(status), 0)
	if online {
		pipe.SAdd(ctx, onlineSetKey, uid)
	} else {
		pipe.SRem(ctx, onlineSetKey, uid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	observability.PresenceWrites.WithLabelValues(string(status)).Inc()
	return nil
}

// GetPresence returns the stored status, or Unknown for users never written.
func (s *RedisStore) GetPresence(ctx context.Context, userID uint) (Status, error) {
	if s.rdb == nil {
		return Unknown, errors.New("presence store unavailable")
	}

	val, err := s.rdb.Get(ctx, statusKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, err
	}

	switch Status(val) {
	case Online:
		return Online, nil
	case Offline:
		return Offline, nil
	default:
		return Unknown, nil
	}
}

// OnlineUserIDs returns every user currently marked online.
func (s *RedisStore) OnlineUserIDs(ctx context.Context) ([]uint, error) {
	if s.rdb == nil {
		return nil, errors.New("presence store unavailable")
	}

	members, err := s.rdb.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(members))
	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		ids = append(ids, uint(id64))
	}
	return ids, nil
}

func statusKey(userID uint) string {
	return statusKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}
