package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "keyhub:replay:"

type redisReplayStore struct {
	client *redis.Client
}

func NewRedisReplayStore(client *redis.Client) ReplayStore {
	return &redisReplayStore{client: client}
}

func (s *redisReplayStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, replayKeyPrefix+key, "", ttl).Result()
}

func (s *redisReplayStore) Complete(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return s.client.Set(ctx, replayKeyPrefix+key, payload, ttl).Err()
}

func (s *redisReplayStore) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, replayKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// An empty value is a reservation whose request has not finished yet.
	if len(val) == 0 {
		return nil, nil
	}
	return val, nil
}

func (s *redisReplayStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, replayKeyPrefix+key).Err()
}
