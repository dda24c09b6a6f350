package service

import (
	"context"
	"strconv"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	"breakout_bot/pkg/tracing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PlaceMarketOrder ставит рыночный интрадей-ордер и возвращает id брокера.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty int64) (id string, err error) {
	span, ctx := tracing.StartSpan(ctx, "gateway.PlaceMarketOrder")
	span.SetTag("symbol", symbol)
	span.SetTag("side", string(side))
	span.SetTag("qty", qty)
	defer func() { tracing.Finish(span, err) }()

	if qty <= 0 {
		return "", errors.Errorf("PlaceMarketOrder: qty %d <= 0", qty)
	}
	sym := helper.NormSymbol(symbol)
	if sym == "" {
		return "", errors.New("PlaceMarketOrder: empty symbol")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"tradingsymbol":    sym,
			"exchange":         c.cfg.Exchange,
			"transaction_type": string(side),
			"order_type":       "MARKET",
			"quantity":         strconv.FormatInt(qty, 10),
			"product":          c.cfg.Product,
			"validity":         "DAY",
		}).
		Post("/orders/regular")
	if err != nil {
		return "", errors.Wrap(err, "PlaceMarketOrder do")
	}

	var data orderData
	if err := decode(resp, &data); err != nil {
		return "", errors.Wrap(err, "PlaceMarketOrder")
	}
	if data.OrderID == "" {
		return "", errors.Errorf("PlaceMarketOrder: empty order_id RAW=%s", string(resp.Body()))
	}

	c.log.Info("[ORDER] placed",
		zap.String("symbol", sym),
		zap.String("side", string(side)),
		zap.Int64("qty", qty),
		zap.String("order_id", data.OrderID),
	)
	return data.OrderID, nil
}
