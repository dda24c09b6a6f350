package service

import (
	"context"
	"fmt"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	"breakout_bot/internal/modules/reservation/service/pg/sql"
	"breakout_bot/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
)

const (
	scopeSide   = "side"
	scopeSymbol = "symbol"
)

// PgStore — то же самое поверх постгреса: счётчики по (день, scope, имя),
// резерв инструмента — одна транзакция под advisory-локом символа.
type PgStore struct {
	db   db.TxManager
	sql  *sql.Queries
	opts Options
}

func NewPgStore(m db.TxManager, opts Options) *PgStore {
	return &PgStore{db: m, sql: sql.New(), opts: opts.withDefaults()}
}

func (s *PgStore) day() string { return helper.DayKey(s.opts.Now()) }

func (s *PgStore) ReserveSide(ctx context.Context, side models.Side, limit int) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.ReserveSide: %w", err)
		}
	}()
	if limit <= 0 {
		return false, nil
	}
	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, qErr := s.sql.ReserveCounter(ctxTx, tx, &sql.ReserveCounterParams{
			Day:      s.day(),
			Scope:    scopeSide,
			Name:     string(side),
			MaxCount: int32(limit),
		})
		if errors.Is(qErr, pgx.ErrNoRows) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		ok = true
		return nil
	})
	return ok, err
}

func (s *PgStore) RollbackSide(ctx context.Context, side models.Side) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.RollbackSide: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return s.sql.DecrementCounter(ctxTx, tx, &sql.DecrementCounterParams{
			Day: s.day(), Scope: scopeSide, Name: string(side),
		})
	})
}

func (s *PgStore) ReserveInstrument(ctx context.Context, symbol string, maxPerDay int) (ok bool, reason models.ReserveReason, err error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return false, models.ReserveError, err
	}
	defer func() {
		if err != nil {
			reason = models.ReserveError
			err = fmt.Errorf("PgStore.ReserveInstrument: %w", err)
		}
	}()

	now := s.opts.Now()
	day := s.day()
	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if err := s.sql.LockSymbolXact(ctxTx, tx, sym); err != nil {
			return err
		}
		if err := s.sql.DeleteExpiredLock(ctxTx, tx, &sql.DeleteExpiredLockParams{
			Symbol:    sym,
			ExpiresAt: pgtype.Timestamptz{Time: now, Valid: true},
		}); err != nil {
			return err
		}

		cur, err := s.sql.GetCounter(ctxTx, tx, &sql.GetCounterParams{Day: day, Scope: scopeSymbol, Name: sym})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if int(cur) >= maxPerDay {
			reason = models.ReserveMaxTrades
			return nil
		}

		locked, err := s.sql.LockExists(ctxTx, tx, sym)
		if err != nil {
			return err
		}
		if locked {
			reason = models.ReserveLocked
			return nil
		}

		if _, err = s.sql.ReserveCounter(ctxTx, tx, &sql.ReserveCounterParams{
			Day: day, Scope: scopeSymbol, Name: sym, MaxCount: int32(maxPerDay),
		}); err != nil {
			return err
		}
		if err = s.sql.InsertLock(ctxTx, tx, &sql.InsertLockParams{
			Symbol:    sym,
			ExpiresAt: pgtype.Timestamptz{Time: now.Add(s.opts.LockTTL), Valid: true},
		}); err != nil {
			return err
		}
		ok, reason = true, models.ReserveOK
		return nil
	})
	return ok, reason, err
}

func (s *PgStore) RollbackInstrument(ctx context.Context, symbol string) (err error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.RollbackInstrument: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if err := s.sql.LockSymbolXact(ctxTx, tx, sym); err != nil {
			return err
		}
		if err := s.sql.DeleteLock(ctxTx, tx, sym); err != nil {
			return err
		}
		return s.sql.DecrementCounter(ctxTx, tx, &sql.DecrementCounterParams{
			Day: s.day(), Scope: scopeSymbol, Name: sym,
		})
	})
}

func (s *PgStore) ReleaseLock(ctx context.Context, symbol string) (err error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.ReleaseLock: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return s.sql.DeleteLock(ctxTx, tx, sym)
	})
}

func (s *PgStore) GetInstrumentTradeCount(ctx context.Context, symbol string) (int, error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return 0, err
	}
	return s.counter(ctx, scopeSymbol, sym)
}

func (s *PgStore) SideCount(ctx context.Context, side models.Side) (int, error) {
	return s.counter(ctx, scopeSide, string(side))
}

func (s *PgStore) counter(ctx context.Context, scope, name string) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.counter: %w", err)
		}
	}()
	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		cur, qErr := s.sql.GetCounter(ctxTx, tx, &sql.GetCounterParams{Day: s.day(), Scope: scope, Name: name})
		if errors.Is(qErr, pgx.ErrNoRows) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		n = int(cur)
		return nil
	})
	return n, err
}
