package service

import (
	"context"
	"database/sql"
	"fmt"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id            TEXT PRIMARY KEY,
    engine        TEXT NOT NULL,
    side          TEXT NOT NULL,
    token         INTEGER NOT NULL,
    symbol        TEXT NOT NULL,
    qty           INTEGER NOT NULL,
    entry_price   REAL NOT NULL,
    sl_price      REAL NOT NULL,
    target_price  REAL NOT NULL,
    entry_time    TEXT NOT NULL,
    order_id      TEXT NOT NULL,
    status        TEXT NOT NULL,
    pnl           REAL NOT NULL DEFAULT 0,
    exit_reason   TEXT,
    exit_time     TEXT,
    exit_price    REAL,
    exit_order_id TEXT,
    exit_failed   INTEGER NOT NULL DEFAULT 0,
    payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS trades_entry_time_idx ON trades (entry_time);
`

// время пишем в UTC фиксированной ширины, чтобы ORDER BY по строке был хронологическим
const sqliteTime = "2006-01-02 15:04:05.000000"

// SQLiteJournal — локальный журнал, когда постгреса нет.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	// sqlite не любит параллельных писателей
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create journal schema")
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Opened(ctx context.Context, t models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("SQLiteJournal.Opened: %w", err)
		}
	}()
	return j.upsert(ctx, t)
}

func (j *SQLiteJournal) Closed(ctx context.Context, t models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("SQLiteJournal.Closed: %w", err)
		}
	}()
	return j.upsert(ctx, t)
}

func (j *SQLiteJournal) upsert(ctx context.Context, t models.Trade) error {
	payload, err := sonic.MarshalString(t)
	if err != nil {
		return err
	}

	var (
		exitReason, exitTime, exitOrderID sql.NullString
		exitPrice                         sql.NullFloat64
	)
	if t.Status == models.TradeClosed {
		exitReason = sql.NullString{String: string(t.ExitReason), Valid: true}
		exitTime = sql.NullString{String: t.ExitTime.UTC().Format(sqliteTime), Valid: !t.ExitTime.IsZero()}
		exitPrice = sql.NullFloat64{Float64: t.ExitPrice, Valid: true}
		exitOrderID = sql.NullString{String: t.ExitOrderID, Valid: t.ExitOrderID != ""}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO trades
		(id, engine, side, token, symbol, qty, entry_price, sl_price, target_price,
		 entry_time, order_id, status, pnl, exit_reason, exit_time, exit_price,
		 exit_order_id, exit_failed, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			sl_price      = excluded.sl_price,
			status        = excluded.status,
			pnl           = excluded.pnl,
			exit_reason   = excluded.exit_reason,
			exit_time     = excluded.exit_time,
			exit_price    = excluded.exit_price,
			exit_order_id = excluded.exit_order_id,
			exit_failed   = excluded.exit_failed,
			payload       = excluded.payload`,
		t.ID, string(t.Engine), string(t.Side), t.Token, t.Symbol, t.Qty,
		t.Entry, t.SL, t.Target, t.EntryTime.UTC().Format(sqliteTime),
		t.OrderID, string(t.Status), t.PnL, exitReason, exitTime, exitPrice,
		exitOrderID, t.ExitFailed, payload,
	)
	return err
}

func (j *SQLiteJournal) Recent(ctx context.Context, limit int) (out []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("SQLiteJournal.Recent: %w", err)
		}
	}()
	rows, err := j.db.QueryContext(ctx,
		`SELECT payload FROM trades ORDER BY entry_time DESC LIMIT ?`, recentLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var t models.Trade
		if err := sonic.UnmarshalString(raw, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
