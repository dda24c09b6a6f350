package main

import (
	"testing"
	"time"

	"breakout_bot/internal/modules/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyKeepsConfigWhenNothingSet(t *testing.T) {
	v := viper.New()
	cmd := newRootCmdWith(v)
	require.NotNil(t, cmd.Flags().Lookup("min-sma"))

	cfg := &config.Config{}
	cfg.Sync.LookbackDays = 15
	cfg.Sync.Pause = time.Second
	cfg.Universe.SeedFile = "configs/universe.yaml"

	apply(cfg, v)
	assert.Equal(t, 15, cfg.Sync.LookbackDays)
	assert.Equal(t, time.Second, cfg.Sync.Pause)
	assert.Equal(t, "configs/universe.yaml", cfg.Universe.SeedFile)
}

func TestApplyFlagsAndEnv(t *testing.T) {
	t.Setenv("SYNC_CONCURRENCY", "2")

	v := viper.New()
	cmd := newRootCmdWith(v)
	require.NoError(t, cmd.Flags().Set("lookback", "3"))
	require.NoError(t, cmd.Flags().Set("min-sma", "2500"))
	require.NoError(t, cmd.Flags().Set("seed", "/tmp/seed.yaml"))

	cfg := &config.Config{}
	cfg.Sync.LookbackDays = 15
	cfg.Sync.Concurrency = 6
	apply(cfg, v)

	assert.Equal(t, 3, cfg.Sync.LookbackDays)
	assert.Equal(t, 2, cfg.Sync.Concurrency)
	assert.Equal(t, 2500.0, cfg.Sync.MinVolSMA)
	assert.Equal(t, "/tmp/seed.yaml", cfg.Universe.SeedFile)
	assert.Zero(t, cfg.Sync.Pause)
}
