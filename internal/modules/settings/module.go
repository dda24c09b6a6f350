package settings

import (
	"breakout_bot/internal/modules/settings/service"
	"breakout_bot/pkg/db"
	"breakout_bot/pkg/rdb"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type params struct {
	fx.In

	Log   *zap.Logger
	Redis *redis.Client
	Keys  rdb.Keys
	Pg    *db.PgTxManager
}

// New: redis, если есть клиент, иначе постгрес, иначе память.
func New(p params) service.Store {
	switch {
	case p.Redis != nil:
		p.Log.Info("[SETTINGS] store redis")
		return service.NewRedisStore(p.Redis, p.Keys)
	case p.Pg != nil:
		p.Log.Info("[SETTINGS] store postgres")
		return service.NewPgStore(p.Pg)
	default:
		p.Log.Warn("[SETTINGS] store memory: dashboard edits do not survive restart")
		return service.NewMemoryStore()
	}
}

func Module() fx.Option {
	return fx.Module("settings",
		fx.Provide(New),
	)
}
