package service

import (
	"context"
	"sync"
	"time"

	"breakout_bot/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoHistory = errors.New("paper gateway has no historical data")

type PaperOrder struct {
	ID     string
	Symbol string
	Side   models.OrderSide
	Qty    int64
	At     time.Time
}

// Paper исполняет всё мгновенно и ничего не шлёт брокеру.
type Paper struct {
	log *zap.Logger

	mu     sync.Mutex
	orders []PaperOrder
}

func NewPaper(log *zap.Logger) *Paper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Paper{log: log}
}

func (p *Paper) PlaceMarketOrder(_ context.Context, symbol string, side models.OrderSide, qty int64) (string, error) {
	if qty <= 0 {
		return "", errors.Errorf("paper: qty %d <= 0", qty)
	}
	o := PaperOrder{
		ID:     uuid.NewString(),
		Symbol: symbol,
		Side:   side,
		Qty:    qty,
		At:     time.Now(),
	}
	p.mu.Lock()
	p.orders = append(p.orders, o)
	p.mu.Unlock()

	p.log.Info("[PAPER] order filled",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int64("qty", qty),
		zap.String("order_id", o.ID),
	)
	return o.ID, nil
}

func (p *Paper) DailyCandles(context.Context, int64, time.Time, time.Time) ([]models.DailyCandle, error) {
	return nil, ErrNoHistory
}

func (p *Paper) Orders() []PaperOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PaperOrder(nil), p.orders...)
}
