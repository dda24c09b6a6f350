package gateway

import (
	"strings"

	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/gateway/service"
	strategy "breakout_bot/internal/modules/strategy/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New выбирает брокера по gateway.mode.
func New(cfg *config.Config, log *zap.Logger) (service.Gateway, error) {
	switch strings.ToLower(cfg.Gateway.Mode) {
	case "rest":
		if cfg.Gateway.BaseURL == "" {
			return nil, errors.New("gateway.mode=rest requires gateway.base_url")
		}
		log.Info("[GW] rest", zap.String("base_url", cfg.Gateway.BaseURL), zap.String("exchange", cfg.Gateway.Exchange))
		return service.NewClient(service.Config{
			BaseURL:     cfg.Gateway.BaseURL,
			APIKey:      cfg.Gateway.APIKey,
			AccessToken: cfg.Gateway.AccessToken,
			Exchange:    cfg.Gateway.Exchange,
			Product:     cfg.Gateway.Product,
			Timeout:     cfg.Gateway.Timeout,
		}, log), nil
	default:
		log.Warn("[GW] paper trading: orders are not sent to the broker")
		return service.NewPaper(log), nil
	}
}

func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(
			New,
			func(g service.Gateway) strategy.Gateway { return g },
		),
	)
}
