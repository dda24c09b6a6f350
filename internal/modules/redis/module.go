package redis

import (
	"context"

	"breakout_bot/internal/modules/config"
	"breakout_bot/pkg/rdb"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module отдаёт *redis.Client и префикс ключей; пустой addr — redis выключен (nil).
func Module() fx.Option {
	return fx.Module("redis",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*goredis.Client, error) {
				if cfg.Redis.Addr == "" {
					log.Info("[REDIS] addr is empty, redis disabled")
					return nil, nil
				}
				c, err := rdb.New(ctx, rdb.Config{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error { return c.Close() },
				})
				return c, nil
			},
			func(cfg *config.Config) rdb.Keys {
				return rdb.Keys{Prefix: cfg.Redis.Prefix}
			},
		),
	)
}
