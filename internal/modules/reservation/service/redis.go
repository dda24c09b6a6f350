package service

import (
	"context"
	"fmt"
	"strconv"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	"breakout_bot/pkg/rdb"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore — реализация на Lua-скриптах: проверка и изменение в одном EVAL.
type RedisStore struct {
	rdb  redis.UniversalClient
	keys rdb.Keys
	opts Options
}

func NewRedisStore(c redis.UniversalClient, keys rdb.Keys, opts Options) *RedisStore {
	return &RedisStore{rdb: c, keys: keys, opts: opts.withDefaults()}
}

func (s *RedisStore) day() string { return helper.DayKey(s.opts.Now()) }

func (s *RedisStore) sideKey(side models.Side) string {
	return s.keys.Join("trades", "side", s.day(), string(side))
}

func (s *RedisStore) symbolKey(symbol string) string {
	return s.keys.Join("trades", "symbol", s.day(), symbol)
}

func (s *RedisStore) lockKey(symbol string) string {
	return s.keys.Join("pos", "open", symbol)
}

func (s *RedisStore) ttl() int64 { return helper.SecondsUntilEOD(s.opts.Now()) }

func (s *RedisStore) ReserveSide(ctx context.Context, side models.Side, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	res, err := reserveSideScript.Run(ctx, s.rdb, []string{s.sideKey(side)}, limit, s.ttl()).Int()
	if err != nil {
		return false, errors.Wrapf(err, "reserve side %s", side)
	}
	return res == 1, nil
}

func (s *RedisStore) RollbackSide(ctx context.Context, side models.Side) error {
	if err := rollbackSideScript.Run(ctx, s.rdb, []string{s.sideKey(side)}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrapf(err, "rollback side %s", side)
	}
	return nil
}

func (s *RedisStore) ReserveInstrument(ctx context.Context, symbol string, maxPerDay int) (bool, models.ReserveReason, error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return false, models.ReserveError, err
	}
	lockTTL := int64(s.opts.LockTTL.Seconds())
	if lockTTL < 1 {
		lockTTL = 1
	}
	res, err := reserveSymbolScript.Run(ctx, s.rdb,
		[]string{s.symbolKey(sym), s.lockKey(sym)},
		maxPerDay, s.ttl(), lockTTL,
	).Slice()
	if err != nil {
		return false, models.ReserveError, errors.Wrapf(err, "reserve instrument %s", sym)
	}
	if len(res) != 2 {
		return false, models.ReserveError, fmt.Errorf("reserve instrument %s: unexpected reply %v", sym, res)
	}
	ok, _ := res[0].(int64)
	reason, _ := res[1].(string)
	return ok == 1, models.ReserveReason(reason), nil
}

func (s *RedisStore) RollbackInstrument(ctx context.Context, symbol string) error {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	if err = rollbackSymbolScript.Run(ctx, s.rdb, []string{s.symbolKey(sym), s.lockKey(sym)}).Err(); err != nil {
		return errors.Wrapf(err, "rollback instrument %s", sym)
	}
	return nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, symbol string) error {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	if err = s.rdb.Del(ctx, s.lockKey(sym)).Err(); err != nil {
		return errors.Wrapf(err, "release lock %s", sym)
	}
	return nil
}

func (s *RedisStore) GetInstrumentTradeCount(ctx context.Context, symbol string) (int, error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return 0, err
	}
	return s.getInt(ctx, s.symbolKey(sym))
}

func (s *RedisStore) SideCount(ctx context.Context, side models.Side) (int, error) {
	return s.getInt(ctx, s.sideKey(side))
}

func (s *RedisStore) getInt(ctx context.Context, key string) (int, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "get %s", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}
