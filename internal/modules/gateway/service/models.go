package service

import (
	"fmt"
	"strconv"
	"time"

	"breakout_bot/internal/models"

	"github.com/pkg/errors"
)

// envelope — общий ответ брокерского REST: {"status":"success","data":{...}} или
// {"status":"error","message":"...","error_type":"..."}.
type envelope[T any] struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
	Data      T      `json:"data"`
}

// ErrRejected — брокер ответил status=error. Детали в *APIError.
var ErrRejected = errors.New("broker rejected request")

// APIError — отказ брокера с его типом ошибки.
type APIError struct {
	HTTPStatus int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("broker %d %s: %s", e.HTTPStatus, e.Type, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrRejected }

type orderData struct {
	OrderID string `json:"order_id"`
}

type historyData struct {
	Candles [][]any `json:"candles"`
}

const historyTimeLayout = "2006-01-02T15:04:05-0700"

// parseCandleRow: [time, open, high, low, close, volume].
func parseCandleRow(row []any) (models.DailyCandle, error) {
	if len(row) < 6 {
		return models.DailyCandle{}, errors.Errorf("short candle row: %d fields", len(row))
	}
	ts, ok := row[0].(string)
	if !ok {
		return models.DailyCandle{}, errors.Errorf("candle time is %T", row[0])
	}
	at, err := time.Parse(historyTimeLayout, ts)
	if err != nil {
		if at, err = time.Parse(time.RFC3339, ts); err != nil {
			return models.DailyCandle{}, errors.Wrapf(err, "candle time %q", ts)
		}
	}

	var f [5]float64
	for i := 0; i < 5; i++ {
		v, err := toFloat(row[i+1])
		if err != nil {
			return models.DailyCandle{}, errors.Wrapf(err, "candle field %d", i+1)
		}
		f[i] = v
	}
	return models.DailyCandle{
		Date:   at,
		Open:   f[0],
		High:   f[1],
		Low:    f[2],
		Close:  f[3],
		Volume: int64(f[4]),
	}, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, errors.Errorf("unexpected %T", v)
	}
}
