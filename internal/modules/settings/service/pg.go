package service

import (
	"context"
	"fmt"

	"breakout_bot/internal/models"
	"breakout_bot/internal/modules/settings/service/pg/sql"
	"breakout_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// PgStore хранит настройки стороны в JSONB.
type PgStore struct {
	db  db.TxManager
	sql *sql.Queries
}

func NewPgStore(m db.TxManager) *PgStore {
	return &PgStore{db: m, sql: sql.New()}
}

func (s *PgStore) Load(ctx context.Context, side models.Side) (out models.StrategySettings, ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.Load: %w", err)
		}
	}()
	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row, qErr := s.sql.GetSettings(ctxTx, tx, string(side))
		if errors.Is(qErr, pgx.ErrNoRows) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		if uErr := sonic.Unmarshal(row.Settings, &out); uErr != nil {
			return uErr
		}
		ok = true
		return nil
	})
	return out, ok, err
}

func (s *PgStore) Save(ctx context.Context, side models.Side, v models.StrategySettings) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.Save: %w", err)
		}
	}()
	if _, known := models.ParseSide(string(side)); !known {
		return ErrUnknownSide
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return s.sql.UpsertSettings(ctxTx, tx, &sql.UpsertSettingsParams{
			Side:     string(side),
			Settings: data,
		})
	})
}
