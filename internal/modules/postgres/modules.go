package postgres

import (
	"context"
	"fmt"

	"breakout_bot/internal/modules/config"
	"breakout_bot/pkg/db"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module отдаёт *db.PgTxManager. Без DSN провайдер возвращает nil —
// потребители сами решают, обязателен ли им постгрес.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					log.Info("[PG] dsn is empty, postgres disabled")
					return nil, nil
				}
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				m := db.NewPgTxManager(poolMaster)
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						m.Close()
						return nil
					},
				})
				return m, nil
			},
		),
	)
}
