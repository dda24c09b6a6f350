package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"breakout_bot/internal/modules/bootstrap"
	bootsvc "breakout_bot/internal/modules/bootstrap/service"
	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/gateway"
	telegram "breakout_bot/internal/modules/telegram_bot/service"
	"breakout_bot/pkg/logger"
	"breakout_bot/pkg/rdb"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(viper.New())
}

func newRootCmdWith(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sync",
		Short:         "Recompute SMA and previous-day levels for the trading universe",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, v)
		},
	}

	f := cmd.Flags()
	f.Int("lookback", 10, "days of daily candles to fetch")
	f.Int("concurrency", 6, "parallel historical requests")
	f.Duration("pause", 340*time.Millisecond, "pause after each request")
	f.Float64("min-sma", 1000, "minimum per-minute volume SMA to keep an instrument")
	f.String("seed", "", "YAML seed file with the universe (overrides universe.seed_file)")
	f.Bool("dry-run", false, "compute without touching the market cache")

	// flags > SYNC_* env > конфиг
	_ = v.BindPFlags(f)
	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd
}

func apply(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("lookback") {
		cfg.Sync.LookbackDays = v.GetInt("lookback")
	}
	if v.IsSet("concurrency") {
		cfg.Sync.Concurrency = v.GetInt("concurrency")
	}
	if v.IsSet("pause") {
		cfg.Sync.Pause = v.GetDuration("pause")
	}
	if v.IsSet("min-sma") {
		cfg.Sync.MinVolSMA = v.GetFloat64("min-sma")
	}
	if s := v.GetString("seed"); s != "" {
		cfg.Universe.SeedFile = s
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	apply(cfg, v)

	log, err := logger.New(cfg.Service.LogLevel, cfg.Service.Name+"-sync", cfg.Service.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var client *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err = rdb.New(ctx, rdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
	}
	store := bootstrap.NewRefStore(log, client, rdb.Keys{Prefix: cfg.Redis.Prefix})
	universe := bootstrap.NewUniverse(cfg, store, log)

	set, err := universe.SyncSet(ctx)
	if err != nil {
		return errors.Wrap(err, "collect universe")
	}
	if len(set) == 0 {
		return errors.New("universe is empty: set universe.seed_file or --seed")
	}

	gw, err := gateway.New(cfg, log)
	if err != nil {
		return err
	}
	notifier, err := telegram.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, nil, log)
	if err != nil {
		return err
	}

	target := store
	if v.GetBool("dry-run") {
		log.Info("[SYNC] dry run, market cache is left untouched")
		target = bootsvc.NewMemoryRefStore()
	}

	syncer := bootsvc.NewSyncer(bootsvc.SyncConfig{
		LookbackDays: cfg.Sync.LookbackDays,
		Concurrency:  cfg.Sync.Concurrency,
		Pause:        cfg.Sync.Pause,
		MinVolSMA:    cfg.Sync.MinVolSMA,
	}, gw, target, notifier, log)

	sum, err := syncer.Run(ctx, set)
	log.Info("[SYNC] summary",
		zap.Int("total", sum.Total),
		zap.Int("eligible", sum.Eligible),
		zap.Int("dropped", sum.Dropped),
		zap.Int("failed", sum.Failed),
	)
	return err
}
