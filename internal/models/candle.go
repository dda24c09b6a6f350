package models

import "time"

// Tick — одно обновление из фида: цена и накопленный за день объём.
type Tick struct {
	Token     int64
	Price     float64
	CumVolume int64
	At        time.Time
}

// Candle — минутная OHLCV свеча. Bucket — начало минуты.
type Candle struct {
	Token  int64     `json:"token"`
	Bucket time.Time `json:"bucket"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

func (c Candle) Range() float64 { return c.High - c.Low }

// DailyCandle — дневная свеча из исторического API брокера.
type DailyCandle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
