package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aplite/internal/onboarding/drafts"
	id "aplite/pkg/domain"
	"aplite/pkg/platform/sentinel"
)

const redisKeyPrefix = "aplite:onboarding:drafts:"

// RedisStore keeps one JSON document per namespace with a sliding TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(ns id.Namespace) string {
	return redisKeyPrefix + ns.String()
}

func (s *RedisStore) Load(ctx context.Context, ns id.Namespace) (drafts.Record, error) {
	raw, err := s.client.GetEx(ctx, redisKey(ns), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return drafts.Record{}, sentinel.ErrNotFound
		}
		return drafts.Record{}, fmt.Errorf("load drafts: %w", err)
	}
	var rec drafts.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return drafts.Record{}, fmt.Errorf("decode drafts: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, ns id.Namespace, rec drafts.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(ns), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save drafts: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, ns id.Namespace) error {
	if err := s.client.Del(ctx, redisKey(ns)).Err(); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}
	return nil
}
