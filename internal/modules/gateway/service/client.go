package service

import (
	"context"
	"net/http"
	"time"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Gateway — брокер целиком: ордера для движков и дневные свечи для sync.
type Gateway interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty int64) (string, error)
	DailyCandles(ctx context.Context, token int64, from, to time.Time) ([]models.DailyCandle, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	Exchange    string
	Product     string
	Timeout     time.Duration
}

// Client — REST-клиент брокера в стиле Kite Connect v3.
type Client struct {
	cfg  Config
	log  *zap.Logger
	http *resty.Client
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "NSE"
	}
	if cfg.Product == "" {
		cfg.Product = "MIS"
	}
	if log == nil {
		log = zap.NewNop()
	}

	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("X-Kite-Version", "3").
		SetHeader("Authorization", "token "+cfg.APIKey+":"+cfg.AccessToken)

	return &Client{cfg: cfg, log: log, http: h}
}

// decode разбирает конверт и превращает отказ брокера в *APIError.
func decode[T any](resp *resty.Response, out *T) error {
	var env envelope[T]
	if err := sonic.ConfigFastest.Unmarshal(resp.Body(), &env); err != nil {
		if resp.StatusCode() != http.StatusOK {
			return &APIError{HTTPStatus: resp.StatusCode(), Type: "HTTPError", Message: string(resp.Body())}
		}
		return errors.Wrapf(err, "decode body=%s", string(resp.Body()))
	}
	if resp.StatusCode() != http.StatusOK || env.Status != "success" {
		return &APIError{HTTPStatus: resp.StatusCode(), Type: env.ErrorType, Message: env.Message}
	}
	*out = env.Data
	return nil
}
