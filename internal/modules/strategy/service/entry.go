package service

import (
	"math"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrBadEntryPrice = errors.New("entry price must be positive")
	ErrZeroQty       = errors.New("risk too small for one share")
)

// Params — общие параметры входа/выхода обоих движков.
type Params struct {
	MaxTradesPerSymbol int

	TickSize        float64 // шаг цены биржи, стопы округляются наружу
	MinGapPct       float64 // доля от цены, 0.0001 = 0.01%
	MinGapAbs       float64 // абсолютный пол в рупиях
	FallbackStopPct float64 // стоп от входа, если свеча-референс недоступна

	ExitBufferPct     float64
	CloseOnFailedExit bool
}

func DefaultParams() Params {
	return Params{
		MaxTradesPerSymbol: 2,
		TickSize:           0.05,
		MinGapPct:          0.0001,
		MinGapAbs:          0.01,
		FallbackStopPct:    0.005,
		ExitBufferPct:      0.0001,
		CloseOnFailedExit:  true,
	}
}

type EntryInput struct {
	Side       models.Side
	Price      float64
	Ref        *models.Candle
	RiskAmount float64
	RR         float64
	TrailRatio float64
}

type EntryPlan struct {
	Entry     float64
	SL        float64
	Target    float64
	Risk      float64 // на акцию
	TrailStep float64
	Qty       int64
}

// PlanEntry: стоп за противоположным экстремумом свечи-референса, но не ближе
// минимального зазора к входу; размер = floor(риск / риск на акцию); цель = вход ± риск*RR.
func PlanEntry(in EntryInput, p Params) (EntryPlan, error) {
	entry := in.Price
	if entry <= 0 {
		return EntryPlan{}, ErrBadEntryPrice
	}
	long := in.Side.IsLong()

	var raw float64
	if in.Ref != nil {
		if long {
			raw = in.Ref.Low
		} else {
			raw = in.Ref.High
		}
	}
	if raw <= 0 {
		if long {
			raw = entry * (1 - p.FallbackStopPct)
		} else {
			raw = entry * (1 + p.FallbackStopPct)
		}
	}

	gap := math.Max(entry*p.MinGapPct, p.MinGapAbs)
	var sl float64
	if long {
		sl = math.Min(raw, entry-gap)
		sl, _ = decimal.NewFromFloat(sl).RoundFloor(2).Float64()
		sl = helper.Round2(helper.RoundDownToTick(sl, p.TickSize))
	} else {
		sl = math.Max(raw, entry+gap)
		sl, _ = decimal.NewFromFloat(sl).RoundCeil(2).Float64()
		sl = helper.Round2(helper.RoundUpToTick(sl, p.TickSize))
	}
	if sl <= 0 {
		return EntryPlan{}, errors.Errorf("stop-loss %.2f is not positive", sl)
	}

	risk := math.Abs(entry - sl)
	qty := int64(math.Floor(in.RiskAmount / risk))
	if qty <= 0 {
		return EntryPlan{}, ErrZeroQty
	}

	rr := in.RR
	if rr <= 0 {
		rr = 2
	}
	target := entry + risk*rr
	if !long {
		target = entry - risk*rr
	}

	step := risk * in.TrailRatio
	if in.TrailRatio <= 0 {
		step = risk
	}

	return EntryPlan{
		Entry:     entry,
		SL:        sl,
		Target:    helper.Round2(target),
		Risk:      risk,
		TrailStep: step,
		Qty:       qty,
	}, nil
}
