package service

import (
	"time"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// кадр фида: {"ticks":[{"token":408065,"ltp":1520.5,"volume":123456,"ts":1760000000000}]}
type wireTick struct {
	Token  int64   `json:"token"`
	LTP    float64 `json:"ltp"`
	Volume int64   `json:"volume"`
	TS     int64   `json:"ts"` // unix ms
}

type wireFrame struct {
	Type  string     `json:"type,omitempty"`
	Ticks []wireTick `json:"ticks"`
}

type subscribeMsg struct {
	Action string  `json:"a"`
	Tokens []int64 `json:"v"`
}

// DecodeFrame разбирает кадр. Тики без цены или токена пропускаются.
func DecodeFrame(msg []byte) ([]models.Tick, error) {
	var f wireFrame
	if err := sonic.ConfigFastest.Unmarshal(msg, &f); err != nil {
		return nil, errors.Wrap(err, "decode feed frame")
	}
	out := make([]models.Tick, 0, len(f.Ticks))
	for _, t := range f.Ticks {
		if t.Token == 0 || t.LTP <= 0 {
			continue
		}
		tick := models.Tick{Token: t.Token, Price: t.LTP, CumVolume: t.Volume}
		if t.TS > 0 {
			tick.At = time.UnixMilli(t.TS)
		}
		out = append(out, tick)
	}
	return out, nil
}

// EncodeFrame — обратная операция, нужна тестовому фиду и /api/tick.
func EncodeFrame(ticks []models.Tick) ([]byte, error) {
	f := wireFrame{Ticks: make([]wireTick, 0, len(ticks))}
	for _, t := range ticks {
		w := wireTick{Token: t.Token, LTP: t.Price, Volume: t.CumVolume}
		if !t.At.IsZero() {
			w.TS = t.At.UnixMilli()
		}
		f.Ticks = append(f.Ticks, w)
	}
	return sonic.ConfigFastest.Marshal(f)
}
