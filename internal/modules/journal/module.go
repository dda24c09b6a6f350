package journal

import (
	"context"
	"strings"

	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/journal/service"
	strategy "breakout_bot/internal/modules/strategy/service"
	"breakout_bot/pkg/db"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg *config.Config
	Log *zap.Logger
	Pg  *db.PgTxManager
}

// New выбирает журнал по journal.driver; none — журнала нет (nil).
func New(p params) (service.Journal, error) {
	switch strings.ToLower(p.Cfg.Journal.Driver) {
	case "postgres":
		if p.Pg == nil {
			return nil, errors.New("journal driver postgres requires db_dsn")
		}
		p.Log.Info("[JOURNAL] postgres")
		return service.NewPgJournal(p.Pg), nil
	case "sqlite":
		j, err := service.NewSQLiteJournal(p.Cfg.Journal.SQLitePath)
		if err != nil {
			return nil, err
		}
		p.Lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return j.Close() },
		})
		p.Log.Info("[JOURNAL] sqlite", zap.String("path", p.Cfg.Journal.SQLitePath))
		return j, nil
	default:
		p.Log.Warn("[JOURNAL] disabled, trade history lives in memory only")
		return nil, nil
	}
}

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			New,
			func(j service.Journal) strategy.Journal {
				if j == nil {
					return nil
				}
				return j
			},
		),
	)
}
