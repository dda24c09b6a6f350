package service

import (
	"context"
	"fmt"
	"time"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	"breakout_bot/pkg/tracing"

	"github.com/pkg/errors"
)

// DailyCandles — дневные свечи [from, to] по токену инструмента, по возрастанию даты.
func (c *Client) DailyCandles(ctx context.Context, token int64, from, to time.Time) (out []models.DailyCandle, err error) {
	span, ctx := tracing.StartSpan(ctx, "gateway.DailyCandles")
	span.SetTag("token", token)
	defer func() { tracing.Finish(span, err) }()

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("token", fmt.Sprint(token)).
		SetQueryParams(map[string]string{
			"from": from.In(helper.IST()).Format("2006-01-02"),
			"to":   to.In(helper.IST()).Format("2006-01-02"),
		}).
		Get("/instruments/historical/{token}/day")
	if err != nil {
		return nil, errors.Wrap(err, "DailyCandles do")
	}

	var data historyData
	if err := decode(resp, &data); err != nil {
		return nil, errors.Wrapf(err, "DailyCandles token=%d", token)
	}

	out = make([]models.DailyCandle, 0, len(data.Candles))
	for _, row := range data.Candles {
		dc, err := parseCandleRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "DailyCandles token=%d", token)
		}
		out = append(out, dc)
	}
	return out, nil
}
