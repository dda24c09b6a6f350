package service

import (
	"context"
	"fmt"

	"breakout_bot/internal/models"
	"breakout_bot/pkg/rdb"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore: {prefix}:settings:{side} — JSON без TTL.
type RedisStore struct {
	rdb  redis.UniversalClient
	keys rdb.Keys
}

func NewRedisStore(c redis.UniversalClient, keys rdb.Keys) *RedisStore {
	return &RedisStore{rdb: c, keys: keys}
}

func (s *RedisStore) key(side models.Side) string { return s.keys.Join("settings", string(side)) }

func (s *RedisStore) Load(ctx context.Context, side models.Side) (out models.StrategySettings, ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("RedisStore.Load: %w", err)
		}
	}()
	raw, err := s.rdb.Get(ctx, s.key(side)).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if err := sonic.ConfigFastest.Unmarshal(raw, &out); err != nil {
		return out, false, err
	}
	return out, true, nil
}

func (s *RedisStore) Save(ctx context.Context, side models.Side, v models.StrategySettings) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("RedisStore.Save: %w", err)
		}
	}()
	if _, ok := models.ParseSide(string(side)); !ok {
		return ErrUnknownSide
	}
	raw, err := sonic.ConfigFastest.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(side), raw, 0).Err()
}
