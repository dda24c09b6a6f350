package service

import (
	"fmt"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
)

// CheckVolumeMatrix выбирает самый старший уровень, до которого дотягивает SMA
// (идём по порядку и останавливаемся на первом непройденном min_sma_avg),
// и проверяет свечу только по нему. Пустая матрица пропускает всё.
func CheckVolumeMatrix(matrix []models.VolumeTier, sma float64, c models.Candle) (bool, string) {
	if len(matrix) == 0 {
		return true, "No Matrix"
	}

	tier := -1
	for i, lvl := range matrix {
		if sma >= lvl.MinSMA {
			tier = i
			continue
		}
		break
	}
	if tier < 0 {
		return false, fmt.Sprintf("SMA %.0f too low", sma)
	}

	lvl := matrix[tier]
	mult := lvl.Multiplier
	if mult <= 0 {
		mult = 1
	}
	required := sma * mult
	turnover := helper.TurnoverCr(c.Volume, c.Close)

	if float64(c.Volume) >= required && turnover >= lvl.MinTurnoverCr {
		return true, fmt.Sprintf("Tier %d Pass (vol=%d req=%.0f val=%.2fcr)", tier+1, c.Volume, required, turnover)
	}
	return false, fmt.Sprintf("Tier %d Fail (vol=%d req=%.0f val=%.2fcr min=%.2fcr)",
		tier+1, c.Volume, required, turnover, lvl.MinTurnoverCr)
}
