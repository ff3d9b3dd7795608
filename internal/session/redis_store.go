package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis. Each session is a JSON blob under
// sess:<id> with the session TTL; a per-user set sess:user:<uid> indexes the
// ids so DestroyAllForUser does not need a scan. The index set carries the
// same TTL and is refreshed on every write; stale members (sessions that
// already expired) are harmless since Destroy tolerates missing keys.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func sessionKey(id string) string { return "sess:" + id }
func userIndexKey(userID uint64) string { return fmt.Sprintf("sess:user:%d", userID) }

func (s *RedisStore) Create(ctx context.Context, c Claims) (string, error) {
	id := uuid.NewString()
	if err := s.write(ctx, id, c, TTL); err != nil {
		return "", err
	}
	pipe := s.rdb.Pipeline()
	pipe.SAdd(ctx, userIndexKey(c.UserID), id)
	pipe.Expire(ctx, userIndexKey(c.UserID), TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Claims, error) {
	var c Claims
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	return c, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, c Claims) error {
	ttl, err := s.rdb.TTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return ErrNotFound
	}
	return s.write(ctx, id, c, ttl)
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) DestroyAllForUser(ctx context.Context, userID uint64) error {
	ids, err := s.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userIndexKey(userID))
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) write(ctx context.Context, id string, c Claims, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(id), raw, ttl).Err()
}
