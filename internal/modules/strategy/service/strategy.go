package service

import (
	"context"
	"time"

	"breakout_bot/internal/models"
)

// Engine — один движок стратегии. Оба метода вызываются под локом инструмента
// и не делают сетевых вызовов: всё блокирующее уходит в Action.
type Engine interface {
	Name() string
	Kind() models.EngineKind
	OnCandleClose(rt *models.InstrumentRuntime, c models.Candle, now time.Time)
	OnTick(rt *models.InstrumentRuntime, price float64, now time.Time) *Action
}

// Gateway — то, что нужно движку от брокера.
type Gateway interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty int64) (string, error)
}

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// Journal — долговременная история сделок.
type Journal interface {
	Opened(ctx context.Context, t models.Trade) error
	Closed(ctx context.Context, t models.Trade) error
}

type ActionKind string

const (
	ActionEntry ActionKind = "entry"
	ActionExit  ActionKind = "exit"
)

// Action — блокирующая часть перехода (резерв, ордер), выполняется вне лока инструмента.
type Action struct {
	Kind   ActionKind
	Engine models.EngineKind
	Token  int64
	Symbol string

	run func(ctx context.Context)
}

func (a *Action) Run(ctx context.Context) {
	if a == nil || a.run == nil {
		return
	}
	a.run(ctx)
}
