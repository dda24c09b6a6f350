package reservation

import (
	"fmt"
	"strings"

	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/reservation/service"
	"breakout_bot/pkg/db"
	"breakout_bot/pkg/rdb"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type params struct {
	fx.In

	Cfg   *config.Config
	Log   *zap.Logger
	Redis *redis.Client
	Keys  rdb.Keys
	Pg    *db.PgTxManager
}

// New выбирает бэкенд по reservation.backend.
func New(p params) (service.Service, error) {
	opts := service.Options{LockTTL: p.Cfg.Reservation.LockTTL}

	switch strings.ToLower(p.Cfg.Reservation.Backend) {
	case "redis":
		if p.Redis == nil {
			return nil, fmt.Errorf("reservation backend redis requires redis.addr")
		}
		p.Log.Info("[RES] backend redis", zap.String("prefix", p.Keys.Prefix))
		return service.NewRedisStore(p.Redis, p.Keys, opts), nil
	case "postgres":
		if p.Pg == nil {
			return nil, fmt.Errorf("reservation backend postgres requires db_dsn")
		}
		p.Log.Info("[RES] backend postgres")
		return service.NewPgStore(p.Pg, opts), nil
	default:
		p.Log.Warn("[RES] backend memory: counters do not survive restart")
		return service.NewMemoryStore(opts), nil
	}
}

func Module() fx.Option {
	return fx.Module("reservation",
		fx.Provide(New),
	)
}
