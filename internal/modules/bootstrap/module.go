package bootstrap

import (
	"context"

	"breakout_bot/internal/book"
	"breakout_bot/internal/models"
	bootstrap "breakout_bot/internal/modules/bootstrap/service"
	"breakout_bot/internal/modules/config"
	gateway "breakout_bot/internal/modules/gateway/service"
	settings "breakout_bot/internal/modules/settings/service"
	"breakout_bot/pkg/rdb"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewRefStore(log *zap.Logger, c *redis.Client, keys rdb.Keys) bootstrap.RefStore {
	if c == nil {
		log.Warn("[BOOT] market cache in memory, universe comes from the seed file")
		return bootstrap.NewMemoryRefStore()
	}
	return bootstrap.NewRedisRefStore(c, keys)
}

func NewUniverse(cfg *config.Config, store bootstrap.RefStore, log *zap.Logger) *bootstrap.Universe {
	return bootstrap.NewUniverse(store, cfg.Universe.SeedFile, log)
}

func NewBook(cfg *config.Config) *book.Book {
	return book.New(cfg.Strategies)
}

type syncerParams struct {
	fx.In

	Cfg      *config.Config
	Log      *zap.Logger
	Gateway  gateway.Gateway
	Store    bootstrap.RefStore
	Notifier bootstrap.ServiceNotifier `optional:"true"`
}

func NewSyncer(p syncerParams) *bootstrap.Syncer {
	return bootstrap.NewSyncer(bootstrap.SyncConfig{
		LookbackDays: p.Cfg.Sync.LookbackDays,
		Concurrency:  p.Cfg.Sync.Concurrency,
		Pause:        p.Cfg.Sync.Pause,
		MinVolSMA:    p.Cfg.Sync.MinVolSMA,
	}, p.Gateway, p.Store, p.Notifier, p.Log)
}

// Load — сохранённые настройки сторон поверх дефолтов из конфига, затем инструменты.
func Load(ctx context.Context, log *zap.Logger, b *book.Book, st settings.Store, u *bootstrap.Universe) error {
	for _, side := range models.AllSides {
		s, ok, err := st.Load(ctx, side)
		if err != nil {
			return errors.Wrapf(err, "load settings %s", side)
		}
		if ok {
			b.SetSettings(side, s)
			log.Info("[BOOT] settings restored", zap.String("side", string(side)))
		}
	}

	n, err := u.Load(ctx, b)
	if err != nil {
		return errors.Wrap(err, "load universe")
	}
	if n == 0 {
		log.Warn("[BOOT] universe is empty, nothing to trade")
	}
	log.Info("[BOOT] instruments loaded", zap.Int("count", n))
	return nil
}

// Module: книга, кэш рыночных уровней, вселенная и sync. На старте книга
// заполняется до того, как поднимется фид.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			NewRefStore,
			NewUniverse,
			NewBook,
			NewSyncer,
		),
		fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger, b *book.Book, st settings.Store, u *bootstrap.Universe) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return Load(ctx, log, b, st, u)
				},
			})
		}),
	)
}
