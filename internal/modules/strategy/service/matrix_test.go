package service

import (
	"testing"

	"breakout_bot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCheckVolumeMatrix(t *testing.T) {
	t.Parallel()
	one := []models.VolumeTier{{MinSMA: 1000, Multiplier: 10, MinTurnoverCr: 1}}

	tests := []struct {
		name   string
		matrix []models.VolumeTier
		sma    float64
		c      models.Candle
		pass   bool
		prefix string
	}{
		{
			name:   "turnover below floor",
			matrix: one,
			sma:    2000,
			c:      models.Candle{Close: 101, Volume: 25000},
			pass:   false,
			prefix: "Tier 1 Fail",
		},
		{
			name:   "volume and turnover ok",
			matrix: one,
			sma:    2000,
			c:      models.Candle{Close: 101, Volume: 100000},
			pass:   true,
			prefix: "Tier 1 Pass",
		},
		{
			name:   "volume below multiple",
			matrix: one,
			sma:    2000,
			c:      models.Candle{Close: 1000, Volume: 19999},
			pass:   false,
			prefix: "Tier 1 Fail",
		},
		{
			name:   "sma too low",
			matrix: one,
			sma:    500,
			c:      models.Candle{Close: 101, Volume: 1e6},
			pass:   false,
			prefix: "SMA 500 too low",
		},
		{
			name:   "empty matrix",
			sma:    1,
			c:      models.Candle{Close: 1, Volume: 1},
			pass:   true,
			prefix: "No Matrix",
		},
		{
			name: "stops at first failing tier",
			matrix: []models.VolumeTier{
				{MinSMA: 1000, Multiplier: 20, MinTurnoverCr: 1},
				{MinSMA: 5000, Multiplier: 10, MinTurnoverCr: 2},
				{MinSMA: 3000, Multiplier: 5, MinTurnoverCr: 0},
			},
			sma:    4000,
			c:      models.Candle{Close: 200, Volume: 80000},
			pass:   true,
			prefix: "Tier 1 Pass",
		},
		{
			name: "highest reachable tier",
			matrix: []models.VolumeTier{
				{MinSMA: 1000, Multiplier: 20, MinTurnoverCr: 1},
				{MinSMA: 5000, Multiplier: 2, MinTurnoverCr: 1},
			},
			sma:    6000,
			c:      models.Candle{Close: 1000, Volume: 12000},
			pass:   true,
			prefix: "Tier 2 Pass",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, detail := CheckVolumeMatrix(tt.matrix, tt.sma, tt.c)
			assert.Equal(t, tt.pass, ok, detail)
			assert.Contains(t, detail, tt.prefix)
		})
	}
}
