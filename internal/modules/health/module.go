package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/health/service"
	journal "breakout_bot/internal/modules/journal/service"
	reservation "breakout_bot/internal/modules/reservation/service"
	settings "breakout_bot/internal/modules/settings/service"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/runner/router"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type apiParams struct {
	fx.In

	Log          *zap.Logger
	State        *service.State
	Book         *book.Book
	Ticks        *runner.TickDispatcher
	Candles      *router.Dispatcher
	Settings     settings.Store
	Reservations reservation.Service
	Journal      journal.Journal `optional:"true"`
}

func NewAPI(p apiParams) *service.API {
	return &service.API{
		Book:         p.Book,
		State:        p.State,
		Ticks:        p.Ticks,
		Candles:      p.Candles,
		Settings:     p.Settings,
		Reservations: p.Reservations,
		Journal:      p.Journal,
		Log:          p.Log,
	}
}

func NewHandler(cfg *config.Config, state *service.State, api *service.API) http.Handler {
	r := mux.NewRouter()
	service.RegisterProbes(r, state)
	api.Register(r)

	origins := cfg.HTTP.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, h http.Handler) {
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return err
			}
			log.Info("[HTTP] listening", zap.String("addr", cfg.HTTP.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("[HTTP] serve failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewAPI,
			NewHandler,
		),
		fx.Invoke(
			func(d *router.Dispatcher, s *service.State) { d.Track(s) },
			RunHTTP,
		),
	)
}
