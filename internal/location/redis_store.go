package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKey = "incall:location"

// RedisStore keeps the location as a JSON document so every replica sees the
// same value.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) LoadLocation(ctx context.Context) (Location, error) {
	data, err := s.redis.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, fmt.Errorf("location: get: %w", err)
	}
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, fmt.Errorf("location: unmarshal: %w", err)
	}
	return loc, nil
}

func (s *RedisStore) SaveLocation(ctx context.Context, loc Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("location: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("location: set: %w", err)
	}
	return nil
}
