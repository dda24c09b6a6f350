package models

// VolumeTier — уровень матрицы объёма. Порядок в списке важен: по возрастанию MinSMA.
type VolumeTier struct {
	MinSMA        float64 `json:"min_sma_avg" yaml:"min_sma_avg"`
	Multiplier    float64 `json:"sma_multiplier" yaml:"sma_multiplier"`
	MinTurnoverCr float64 `json:"min_vol_price_cr" yaml:"min_vol_price_cr"`
}

// StrategySettings — настройки одной стороны, редактируются с дашборда.
type StrategySettings struct {
	RiskReward   string       `json:"risk_reward" yaml:"risk_reward"` // "1:2"
	TrailingSL   string       `json:"trailing_sl" yaml:"trailing_sl"` // "1:1.5"
	TotalTrades  int          `json:"total_trades" yaml:"total_trades"`
	RiskAmount   float64      `json:"risk_trade_1" yaml:"risk_trade_1"`
	TradeStart   string       `json:"trade_start" yaml:"trade_start"` // HH:MM IST
	TradeEnd     string       `json:"trade_end" yaml:"trade_end"`
	VolumeMatrix []VolumeTier `json:"volume_criteria" yaml:"volume_criteria"`
}

var defaultMultipliers = []float64{20, 18, 16, 14, 12, 10, 8, 6, 4, 2}

// DefaultVolumeMatrix — десять уровней: оборот от 1 до 10 крор, множитель от 20 до 2.
func DefaultVolumeMatrix() []VolumeTier {
	out := make([]VolumeTier, 0, len(defaultMultipliers))
	for i, m := range defaultMultipliers {
		out = append(out, VolumeTier{
			MinSMA:        1000,
			Multiplier:    m,
			MinTurnoverCr: float64(i + 1),
		})
	}
	return out
}

func DefaultSettings(side Side) StrategySettings {
	s := StrategySettings{
		RiskReward:   "1:2",
		TrailingSL:   "1:1.5",
		TotalTrades:  5,
		RiskAmount:   2000,
		TradeStart:   "09:15",
		TradeEnd:     "15:10",
		VolumeMatrix: DefaultVolumeMatrix(),
	}
	if side.Engine() == EngineMomentum {
		s.TradeEnd = "09:17"
	}
	return s
}
