package service

import (
	"time"

	"breakout_bot/internal/models"
)

type BreakoutConfig struct {
	RangeGatePct     float64 // размах свечи в % от close
	ExtensionGatePct float64 // вынос за PDH/PDL в %, если размах больше
}

// Breakout — пробой уровней прошлого дня закрытием минутной свечи.
type Breakout struct {
	cfg BreakoutConfig
}

func NewBreakout(cfg BreakoutConfig) *Breakout {
	if cfg.RangeGatePct <= 0 {
		cfg.RangeGatePct = 0.7
	}
	if cfg.ExtensionGatePct <= 0 {
		cfg.ExtensionGatePct = 0.5
	}
	return &Breakout{cfg: cfg}
}

func (b *Breakout) Name() string            { return "breakout" }
func (b *Breakout) Kind() models.EngineKind { return models.EngineBreakout }
func (b *Breakout) Reason() string          { return "PDH/PDL break + Vol OK" }

func (b *Breakout) Qualify(rt *models.InstrumentRuntime, _ *models.EngineState, c models.Candle, _ time.Time) (models.Side, bool) {
	ref := rt.Ref
	if !ref.HasLevels() || c.Close <= 0 {
		return models.SideNone, false
	}

	var side models.Side
	switch {
	case c.Close > ref.PDH:
		side = models.SideBull
	case c.Close < ref.PDL:
		side = models.SideBear
	default:
		return models.SideNone, false
	}

	if c.Range()/c.Close*100 <= b.cfg.RangeGatePct {
		return side, true
	}

	// широкая свеча: пропускаем только если вынос за уровень небольшой
	var ext float64
	if side == models.SideBull {
		ext = (c.High - ref.PDH) / ref.PDH * 100
	} else {
		ext = (ref.PDL - c.Low) / ref.PDL * 100
	}
	if ext > b.cfg.ExtensionGatePct {
		return models.SideNone, false
	}
	return side, true
}
