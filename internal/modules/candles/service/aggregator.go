package service

import (
	"time"

	"breakout_bot/internal/models"
)

// Aggregator собирает минутные свечи из тиков. Состояние свечи живёт в InstrumentRuntime,
// эксклюзивность даёт лок инструмента у вызывающего.
type Aggregator struct {
	bucket time.Duration
}

func NewAggregator() *Aggregator { return &Aggregator{bucket: time.Minute} }

// Update применяет тик. Если тик открыл новую минуту — возвращает копию закрытой свечи.
func (a *Aggregator) Update(rt *models.InstrumentRuntime, price float64, cumVolume int64, at time.Time) (models.Candle, bool) {
	bucket := at.Truncate(a.bucket)
	c := rt.Candle

	if c == nil {
		rt.Candle = a.open(rt.Token, bucket, price)
		rt.BaseVolume = cumVolume
		return models.Candle{}, false
	}

	// запоздавший тик не двигает бакет назад
	if !bucket.After(c.Bucket) {
		if price > c.High {
			c.High = price
		}
		if price < c.Low {
			c.Low = price
		}
		c.Close = price
		if d := cumVolume - rt.BaseVolume; d > 0 {
			c.Volume += d
		}
		rt.BaseVolume = cumVolume
		return models.Candle{}, false
	}

	closed := *c
	rt.Candle = a.open(rt.Token, bucket, price)
	rt.BaseVolume = cumVolume
	return closed, true
}

func (a *Aggregator) open(token int64, bucket time.Time, price float64) *models.Candle {
	return &models.Candle{
		Token:  token,
		Bucket: bucket,
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
	}
}
