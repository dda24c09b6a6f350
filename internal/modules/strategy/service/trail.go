package service

import (
	"math"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
)

// StepTrail — ступенчатый трейлинг: step = риск*коэф, k = floor(profit/step),
// кандидат = entry ± (k-1)*step, округлённый к шагу цены в сторону от рынка.
// Возвращает ok только если стоп строго лучше текущего.
func StepTrail(t *models.Trade, price, tick float64) (float64, bool) {
	if t == nil || t.Entry <= 0 || t.TrailStep <= 0 {
		return 0, false
	}
	long := t.Side.IsLong()

	profit := price - t.Entry
	if !long {
		profit = t.Entry - price
	}
	if profit <= 0 {
		return 0, false
	}

	k := math.Floor(profit/t.TrailStep + 1e-9)
	if k < 1 {
		return 0, false
	}

	var candidate float64
	if long {
		candidate = helper.Round2(helper.RoundDownToTick(t.Entry+(k-1)*t.TrailStep, tick))
	} else {
		candidate = helper.Round2(helper.RoundUpToTick(t.Entry-(k-1)*t.TrailStep, tick))
	}
	if !improves(long, t.SL, candidate) {
		return 0, false
	}
	return candidate, true
}

func improves(long bool, current, candidate float64) bool {
	if long {
		return candidate > current
	}
	return candidate < current
}

// exitReason — приоритет: ручной выход, цель, стоп. Буфер ловит недолёты на доли процента.
func exitReason(t *models.Trade, price float64, manual bool, buffer float64) models.ExitReason {
	if manual {
		return models.ExitManual
	}
	if t.Side.IsLong() {
		if t.Target > 0 && price >= t.Target*(1-buffer) {
			return models.ExitTarget
		}
		if t.SL > 0 && price <= t.SL*(1+buffer) {
			return models.ExitStopLoss
		}
		return ""
	}
	if t.Target > 0 && price <= t.Target*(1+buffer) {
		return models.ExitTarget
	}
	if t.SL > 0 && price >= t.SL*(1-buffer) {
		return models.ExitStopLoss
	}
	return ""
}
