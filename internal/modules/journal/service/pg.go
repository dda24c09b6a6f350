package service

import (
	"context"
	"fmt"

	"breakout_bot/internal/models"
	"breakout_bot/internal/modules/journal/service/pg/sql"
	"breakout_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type PgJournal struct {
	db  db.TxManager
	sql *sql.Queries
}

func NewPgJournal(m db.TxManager) *PgJournal {
	return &PgJournal{db: m, sql: sql.New()}
}

func (j *PgJournal) Opened(ctx context.Context, t models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgJournal.Opened: %w", err)
		}
	}()
	return j.upsert(ctx, t)
}

func (j *PgJournal) Closed(ctx context.Context, t models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgJournal.Closed: %w", err)
		}
	}()
	return j.upsert(ctx, t)
}

func (j *PgJournal) upsert(ctx context.Context, t models.Trade) error {
	payload, err := sonic.Marshal(t)
	if err != nil {
		return err
	}
	arg := &sql.UpsertTradeParams{
		ID:          t.ID,
		Engine:      string(t.Engine),
		Side:        string(t.Side),
		Token:       t.Token,
		Symbol:      t.Symbol,
		Qty:         t.Qty,
		EntryPrice:  t.Entry,
		SlPrice:     t.SL,
		TargetPrice: t.Target,
		EntryTime:   pgtype.Timestamptz{Time: t.EntryTime, Valid: true},
		OrderID:     t.OrderID,
		Status:      string(t.Status),
		Pnl:         t.PnL,
		ExitFailed:  t.ExitFailed,
		Payload:     payload,
	}
	if t.Status == models.TradeClosed {
		arg.ExitReason = pgtype.Text{String: string(t.ExitReason), Valid: true}
		arg.ExitTime = pgtype.Timestamptz{Time: t.ExitTime, Valid: !t.ExitTime.IsZero()}
		arg.ExitPrice = pgtype.Float8{Float64: t.ExitPrice, Valid: true}
		arg.ExitOrderID = pgtype.Text{String: t.ExitOrderID, Valid: t.ExitOrderID != ""}
	}
	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return j.sql.UpsertTrade(ctxTx, tx, arg)
	})
}

func (j *PgJournal) Recent(ctx context.Context, limit int) (out []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgJournal.Recent: %w", err)
		}
	}()
	err = j.db.RunRepeatableRead(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, qErr := j.sql.RecentTrades(ctxTx, tx, int32(recentLimit(limit)))
		if qErr != nil {
			return qErr
		}
		out = make([]models.Trade, 0, len(rows))
		for _, raw := range rows {
			var t models.Trade
			if uErr := sonic.Unmarshal(raw, &t); uErr != nil {
				return uErr
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}
