package service

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	"breakout_bot/pkg/db"
	"breakout_bot/pkg/rdb"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type factory func(t *testing.T, opts Options) Service

func backends(t *testing.T) map[string]factory {
	out := map[string]factory{
		"memory": func(t *testing.T, opts Options) Service { return NewMemoryStore(opts) },
		"redis": func(t *testing.T, opts Options) Service {
			mr := miniredis.RunT(t)
			c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = c.Close() })
			return NewRedisStore(c, rdb.Keys{Prefix: "test"}, opts)
		},
	}
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		out["postgres"] = func(t *testing.T, opts Options) Service {
			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
			require.NoError(t, err)
			t.Cleanup(pool.Close)
			_, err = pool.Exec(ctx, `TRUNCATE reservation_counters, position_locks`)
			require.NoError(t, err)
			return NewPgStore(db.NewPgTxManager(pool), opts)
		}
	}
	return out
}

func fixedNow() func() time.Time {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, helper.IST())
	return func() time.Time { return ts }
}

func TestReserveInstrumentLockedOnSecondCall(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			ok, reason, err := s.ReserveInstrument(ctx, "infy", 3)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, models.ReserveOK, reason)

			ok, reason, err = s.ReserveInstrument(ctx, " INFY ", 3)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, models.ReserveLocked, reason)

			n, err := s.GetInstrumentTradeCount(ctx, "INFY")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestReserveInstrumentMaxTradesRegardlessOfLock(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			for i := 0; i < 2; i++ {
				ok, _, err := s.ReserveInstrument(ctx, "TCS", 2)
				require.NoError(t, err)
				require.True(t, ok)
				require.NoError(t, s.ReleaseLock(ctx, "TCS"))
			}

			// без лока
			ok, reason, err := s.ReserveInstrument(ctx, "TCS", 2)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, models.ReserveMaxTrades, reason)

			// и с локом всё равно MAX_TRADES
			ok, reason, err = s.ReserveInstrument(ctx, "SBIN", 1)
			require.NoError(t, err)
			require.True(t, ok)
			ok, reason, err = s.ReserveInstrument(ctx, "SBIN", 1)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, models.ReserveMaxTrades, reason)
		})
	}
}

func TestRollbackInstrumentFreesLockAndCount(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			ok, _, err := s.ReserveInstrument(ctx, "HDFC", 2)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, s.RollbackInstrument(ctx, "HDFC"))
			n, err := s.GetInstrumentTradeCount(ctx, "HDFC")
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			// пол нуля
			require.NoError(t, s.RollbackInstrument(ctx, "HDFC"))
			n, err = s.GetInstrumentTradeCount(ctx, "HDFC")
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			ok, reason, err := s.ReserveInstrument(ctx, "HDFC", 2)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, models.ReserveOK, reason)
		})
	}
}

func TestReleaseLockKeepsDailyCount(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			ok, _, err := s.ReserveInstrument(ctx, "ITC", 2)
			require.NoError(t, err)
			require.True(t, ok)
			require.NoError(t, s.ReleaseLock(ctx, "ITC"))

			n, err := s.GetInstrumentTradeCount(ctx, "ITC")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestEmptySymbol(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			s := mk(t, Options{Now: fixedNow()})
			ok, reason, err := s.ReserveInstrument(context.Background(), "  ", 2)
			assert.ErrorIs(t, err, ErrEmptySymbol)
			assert.False(t, ok)
			assert.Equal(t, models.ReserveError, reason)
		})
	}
}

func TestSideRollbackFloorsAtZero(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			require.NoError(t, s.RollbackSide(ctx, models.SideBull))
			n, err := s.SideCount(ctx, models.SideBull)
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			ok, err := s.ReserveSide(ctx, models.SideBull, 1)
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = s.ReserveSide(ctx, models.SideBull, 1)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.RollbackSide(ctx, models.SideBull))
			ok, err = s.ReserveSide(ctx, models.SideBull, 1)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestReserveSideNeverExceedsLimitConcurrently(t *testing.T) {
	const (
		limit   = 5
		callers = 64
	)
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			var granted atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := s.ReserveSide(ctx, models.SideBear, limit)
					assert.NoError(t, err)
					if ok {
						granted.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(limit), granted.Load())
			n, err := s.SideCount(ctx, models.SideBear)
			require.NoError(t, err)
			assert.Equal(t, limit, n)
		})
	}
}

func TestReserveInstrumentConcurrentSingleWinner(t *testing.T) {
	for name, mk := range backends(t) {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t, Options{Now: fixedNow()})

			var granted atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, _, err := s.ReserveInstrument(ctx, "RELIANCE", 2)
					assert.NoError(t, err)
					if ok {
						granted.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), granted.Load())
		})
	}
}

func TestRedisKeysAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })

	s := NewRedisStore(c, rdb.Keys{Prefix: "bbot"}, Options{Now: fixedNow(), LockTTL: 90 * time.Second})
	ctx := context.Background()

	ok, _, err := s.ReserveInstrument(ctx, "wipro", 2)
	require.NoError(t, err)
	require.True(t, ok)

	mr.CheckGet(t, "bbot:trades:symbol:20240304:WIPRO", "1")
	assert.True(t, mr.Exists("bbot:pos:open:WIPRO"))
	assert.Equal(t, 90*time.Second, mr.TTL("bbot:pos:open:WIPRO"))
	// счётчик живёт до 23:59:59 IST
	assert.Equal(t, time.Duration(helper.SecondsUntilEOD(fixedNow()()))*time.Second, mr.TTL("bbot:trades:symbol:20240304:WIPRO"))

	mr.FastForward(91 * time.Second)
	ok, reason, err := s.ReserveInstrument(ctx, "WIPRO", 2)
	require.NoError(t, err)
	assert.True(t, ok, "lock should expire by ttl")
	assert.Equal(t, models.ReserveOK, reason)
}

func TestMemoryStoreRollsOverDay(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, helper.IST())
	s := NewMemoryStore(Options{Now: func() time.Time { return now }})
	ctx := context.Background()

	ok, err := s.ReserveSide(ctx, models.SideMomBull, 1)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(24 * time.Hour)
	ok, err = s.ReserveSide(ctx, models.SideMomBull, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
