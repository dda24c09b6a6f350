package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"breakout_bot/internal/models"
	"breakout_bot/pkg/rdb"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RefStore — кэш справочных данных рынка, который пишет sync и читает бот на старте.
type RefStore interface {
	Upsert(ctx context.Context, ref models.MarketRef) error
	Delete(ctx context.Context, token int64) error
	All(ctx context.Context) ([]models.MarketRef, error)
}

// RedisRefStore: {prefix}:market:{token} — JSON, {prefix}:universe:tokens — множество токенов.
type RedisRefStore struct {
	rdb  redis.UniversalClient
	keys rdb.Keys
}

func NewRedisRefStore(c redis.UniversalClient, keys rdb.Keys) *RedisRefStore {
	return &RedisRefStore{rdb: c, keys: keys}
}

func (s *RedisRefStore) refKey(token int64) string {
	return s.keys.Join("market", strconv.FormatInt(token, 10))
}

func (s *RedisRefStore) universeKey() string { return s.keys.Join("universe", "tokens") }

func (s *RedisRefStore) Upsert(ctx context.Context, ref models.MarketRef) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("RedisRefStore.Upsert: %w", err)
		}
	}()
	raw, err := sonic.ConfigFastest.Marshal(ref)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.refKey(ref.Token), raw, 0)
		p.SAdd(ctx, s.universeKey(), ref.Token)
		return nil
	})
	return err
}

func (s *RedisRefStore) Delete(ctx context.Context, token int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("RedisRefStore.Delete: %w", err)
		}
	}()
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.refKey(token))
		p.SRem(ctx, s.universeKey(), token)
		return nil
	})
	return err
}

// All читает всю вселенную; токены без записи пропускаются.
func (s *RedisRefStore) All(ctx context.Context) (out []models.MarketRef, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("RedisRefStore.All: %w", err)
		}
	}()
	members, err := s.rdb.SMembers(ctx, s.universeKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, s.keys.Join("market", m))
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out = make([]models.MarketRef, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var ref models.MarketRef
		if err := sonic.ConfigFastest.UnmarshalFromString(str, &ref); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	sortRefs(out)
	return out, nil
}

// MemoryRefStore — когда Redis не настроен.
type MemoryRefStore struct {
	mu   sync.RWMutex
	refs map[int64]models.MarketRef
}

func NewMemoryRefStore() *MemoryRefStore {
	return &MemoryRefStore{refs: make(map[int64]models.MarketRef)}
}

func (s *MemoryRefStore) Upsert(_ context.Context, ref models.MarketRef) error {
	s.mu.Lock()
	s.refs[ref.Token] = ref
	s.mu.Unlock()
	return nil
}

func (s *MemoryRefStore) Delete(_ context.Context, token int64) error {
	s.mu.Lock()
	delete(s.refs, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryRefStore) All(context.Context) ([]models.MarketRef, error) {
	s.mu.RLock()
	out := make([]models.MarketRef, 0, len(s.refs))
	for _, r := range s.refs {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sortRefs(out)
	return out, nil
}

func sortRefs(refs []models.MarketRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Token < refs[j].Token })
}
