package models

import "time"

// InstrumentRuntime живёт всё время процесса и меняется только под локом инструмента.
type InstrumentRuntime struct {
	Token  int64
	Symbol string
	Ref    MarketRef

	LTP float64

	// открытая минутная свеча и базовый накопленный объём для дельты
	Candle     *Candle
	BaseVolume int64

	Breakout EngineState
	Momentum EngineState
}

// Engine возвращает под-состояние конкретного движка; поля не пересекаются.
func (rt *InstrumentRuntime) Engine(kind EngineKind) *EngineState {
	if kind == EngineMomentum {
		return &rt.Momentum
	}
	return &rt.Breakout
}

type EngineState struct {
	Status    Status
	Latch     Side
	TriggerPx float64
	RefCandle *Candle
	Scan      ScanInfo
	Trade     *Trade

	// день (YYYYMMDD), за который уже оценена открывающая свеча momentum
	EvaluatedDay string
}

// ScanInfo — то, что показывает сканер дашборда.
type ScanInfo struct {
	SeenAt time.Time `json:"seen_at"`
	Volume int64     `json:"volume"`
	Reason string    `json:"reason"`
}

// Reset возвращает движок в WAITING и чистит триггер, латч и сканер.
func (s *EngineState) Reset() {
	s.Status = StatusWaiting
	s.Latch = SideNone
	s.TriggerPx = 0
	s.RefCandle = nil
	s.Scan = ScanInfo{}
	s.Trade = nil
}
