package service

import (
	"math"
	"time"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
)

type MomentumConfig struct {
	OpeningCandle string // HH:MM IST
	MaxGapPct     float64
}

// Momentum оценивает одну открывающую свечу в день: направление тела,
// подтверждённое положением относительно prev close, и ограничение гэпа.
type Momentum struct {
	cfg     MomentumConfig
	openMin int
}

func NewMomentum(cfg MomentumConfig) (*Momentum, error) {
	if cfg.OpeningCandle == "" {
		cfg.OpeningCandle = "09:15"
	}
	if cfg.MaxGapPct <= 0 {
		cfg.MaxGapPct = 3
	}
	m, err := helper.ParseClock(cfg.OpeningCandle)
	if err != nil {
		return nil, err
	}
	return &Momentum{cfg: cfg, openMin: m}, nil
}

func (q *Momentum) Name() string            { return "momentum" }
func (q *Momentum) Kind() models.EngineKind { return models.EngineMomentum }
func (q *Momentum) Reason() string          { return "Opening momentum + Vol OK" }

func (q *Momentum) Qualify(rt *models.InstrumentRuntime, st *models.EngineState, c models.Candle, _ time.Time) (models.Side, bool) {
	if helper.MinuteOfDay(c.Bucket) != q.openMin {
		return models.SideNone, false
	}
	day := helper.DayKey(c.Bucket)
	if st.EvaluatedDay == day {
		return models.SideNone, false
	}
	st.EvaluatedDay = day

	prev := rt.Ref.PrevClose
	if prev <= 0 {
		return models.SideNone, false
	}

	var side models.Side
	switch {
	case c.Close > c.Open && c.Close > prev:
		side = models.SideMomBull
	case c.Close < c.Open && c.Close < prev:
		side = models.SideMomBear
	default:
		return models.SideNone, false
	}

	if math.Abs(c.Close-prev)/prev*100 > q.cfg.MaxGapPct {
		return models.SideNone, false
	}
	return side, true
}
