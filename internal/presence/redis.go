package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"voxchat/internal/domain"
)

// onlineSetKey is the shared set of online user IDs.
const onlineSetKey = "online_users"

// RedisStore keeps presence in a Redis set so that HTTP queries and the
// connection registry observe the same view.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) MarkOnline(ctx context.Context, userID string) error {
	if err := s.client.SAdd(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("%w: sadd: %v", domain.ErrPresenceUnavailable, err)
	}
	return nil
}

func (s *RedisStore) MarkOffline(ctx context.Context, userID string) error {
	if err := s.client.SRem(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("%w: srem: %v", domain.ErrPresenceUnavailable, err)
	}
	return nil
}

func (s *RedisStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	online, err := s.client.SIsMember(ctx, onlineSetKey, userID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: sismember: %v", domain.ErrPresenceUnavailable, err)
	}
	return online, nil
}

func (s *RedisStore) ListOnline(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: smembers: %v", domain.ErrPresenceUnavailable, err)
	}
	return ids, nil
}
