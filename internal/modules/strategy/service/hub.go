package service

import (
	"time"

	"breakout_bot/internal/models"

	"go.uber.org/zap"
)

// Hub раздаёт события всем движкам. Паника одного движка не мешает другому.
type Hub struct {
	engines []Engine
	log     *zap.Logger
}

func NewHub(log *zap.Logger, engines ...Engine) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{engines: engines, log: log}
}

func (h *Hub) Engines() []Engine { return h.engines }

func (h *Hub) OnCandleClose(rt *models.InstrumentRuntime, c models.Candle, now time.Time) {
	for _, e := range h.engines {
		h.guard(e, rt, "candle", func() { e.OnCandleClose(rt, c, now) })
	}
}

// OnTick возвращает действия, которые надо выполнить вне лока.
func (h *Hub) OnTick(rt *models.InstrumentRuntime, price float64, now time.Time) []*Action {
	var out []*Action
	for _, e := range h.engines {
		h.guard(e, rt, "tick", func() {
			if a := e.OnTick(rt, price, now); a != nil {
				out = append(out, a)
			}
		})
	}
	return out
}

func (h *Hub) guard(e Engine, rt *models.InstrumentRuntime, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("[STRAT] engine panic",
				zap.String("engine", e.Name()),
				zap.String("event", what),
				zap.Int64("token", rt.Token),
				zap.String("symbol", rt.Symbol),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
