package service

import (
	"context"
	"time"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"

	"github.com/pkg/errors"
)

var ErrEmptySymbol = errors.New("reservation: empty symbol")

// Service — атомарные дневные счётчики и локи открытой позиции.
// Каждая мутация — одна транзакция на стороне хранилища.
type Service interface {
	ReserveSide(ctx context.Context, side models.Side, limit int) (bool, error)
	RollbackSide(ctx context.Context, side models.Side) error
	ReserveInstrument(ctx context.Context, symbol string, maxPerDay int) (bool, models.ReserveReason, error)
	RollbackInstrument(ctx context.Context, symbol string) error
	ReleaseLock(ctx context.Context, symbol string) error
	GetInstrumentTradeCount(ctx context.Context, symbol string) (int, error)
	SideCount(ctx context.Context, side models.Side) (int, error)
}

// Options общие для всех бэкендов.
type Options struct {
	LockTTL time.Duration
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func normSymbol(raw string) (string, error) {
	s := helper.NormSymbol(raw)
	if s == "" {
		return "", ErrEmptySymbol
	}
	return s, nil
}
