package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"breakout_bot/internal/models"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Service struct {
		Name     string `yaml:"name"`
		LogLevel string `yaml:"log_level"`
		Dev      bool   `yaml:"dev"`
	} `yaml:"service"`

	HTTP struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"http"`

	DB string `yaml:"db_dsn"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Feed struct {
		URL          string        `yaml:"url"`
		PingInterval time.Duration `yaml:"ping_interval"`
		Reconnect    time.Duration `yaml:"reconnect"`
	} `yaml:"feed"`

	Gateway struct {
		Mode        string        `yaml:"mode"` // rest | paper
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		AccessToken string        `yaml:"access_token"`
		Exchange    string        `yaml:"exchange"`
		Product     string        `yaml:"product"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`

	Dispatcher struct {
		TickQueueSize   int `yaml:"tick_queue_size"`
		CandleQueueSize int `yaml:"candle_queue_size"`
		Concurrency     int `yaml:"concurrency"`
		CandleBatch     int `yaml:"candle_batch"`
		ActionWorkers   int `yaml:"action_workers"`
	} `yaml:"dispatcher"`

	Reservation struct {
		Backend            string        `yaml:"backend"` // redis | postgres | memory
		LockTTL            time.Duration `yaml:"lock_ttl"`
		MaxTradesPerSymbol int           `yaml:"max_trades_per_symbol"`
	} `yaml:"reservation"`

	Breakout struct {
		RangeGatePct     float64 `yaml:"range_gate_pct"`
		ExtensionGatePct float64 `yaml:"extension_gate_pct"`
	} `yaml:"breakout"`

	Momentum struct {
		OpeningCandle string  `yaml:"opening_candle"`
		MaxGapPct     float64 `yaml:"max_gap_pct"`
	} `yaml:"momentum"`

	Entry struct {
		TickSize        float64 `yaml:"tick_size"`
		MinGapPct       float64 `yaml:"min_gap_pct"`
		MinGapAbs       float64 `yaml:"min_gap_abs"`
		FallbackStopPct float64 `yaml:"fallback_stop_pct"`
	} `yaml:"entry"`

	Exit struct {
		BufferPct      float64 `yaml:"buffer_pct"`
		CloseOnFailure bool    `yaml:"close_on_failure"`
	} `yaml:"exit"`

	// дефолты по сторонам, перекрываются сохранёнными настройками
	Strategies map[models.Side]models.StrategySettings `yaml:"strategies"`

	Journal struct {
		Driver     string `yaml:"driver"` // postgres | sqlite | none
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"journal"`

	Universe struct {
		SeedFile string `yaml:"seed_file"`
	} `yaml:"universe"`

	Sync struct {
		LookbackDays int           `yaml:"lookback_days"`
		Concurrency  int           `yaml:"concurrency"`
		Pause        time.Duration `yaml:"pause"`
		MinVolSMA    float64       `yaml:"min_vol_sma"`
	} `yaml:"sync"`
}

func defaults() Config {
	var c Config
	c.Service.Name = "breakout_bot"
	c.Service.LogLevel = "info"
	c.HTTP.Addr = ":8080"
	c.Redis.Addr = "127.0.0.1:6379"
	c.Redis.Prefix = "bbot"
	c.Feed.PingInterval = 20 * time.Second
	c.Feed.Reconnect = time.Second
	c.Gateway.Mode = "paper"
	c.Gateway.Exchange = "NSE"
	c.Gateway.Product = "MIS"
	c.Gateway.Timeout = 10 * time.Second
	c.Dispatcher.TickQueueSize = 2500
	c.Dispatcher.CandleQueueSize = 4000
	c.Dispatcher.Concurrency = 500
	c.Dispatcher.CandleBatch = 256
	c.Dispatcher.ActionWorkers = 64
	c.Reservation.Backend = "redis"
	c.Reservation.LockTTL = 30 * time.Minute
	c.Reservation.MaxTradesPerSymbol = 2
	c.Breakout.RangeGatePct = 0.7
	c.Breakout.ExtensionGatePct = 0.5
	c.Momentum.OpeningCandle = "09:15"
	c.Momentum.MaxGapPct = 3.0
	c.Entry.TickSize = 0.05
	c.Entry.MinGapPct = 0.0001
	c.Entry.MinGapAbs = 0.01
	c.Entry.FallbackStopPct = 0.005
	c.Exit.BufferPct = 0.0001
	c.Exit.CloseOnFailure = true
	c.Journal.Driver = "none"
	c.Journal.SQLitePath = "trades.db"
	c.Sync.LookbackDays = 10
	c.Sync.Concurrency = 6
	c.Sync.Pause = 340 * time.Millisecond
	c.Sync.MinVolSMA = 1000
	return c
}

// NewConfig читает configs/$CONFIG_FILE поверх дефолтов и накладывает env.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")
	dir := getenvDefault(configDirENV, "configs")

	config := defaults()
	if err := config.loadFile(dir + "/" + configFileName); err != nil {
		return nil, err
	}
	config.applyEnv()
	config.fillStrategies()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// без файла живём на дефолтах и env
			return nil
		}
		return errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	if err = yaml.NewDecoder(file).Decode(c); err != nil {
		return errors.Wrapf(err, "decode config file %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		c.DB = dsn
	}
	c.Telegram.ChatID = int64FromEnv("TELEGRAM_CHAT_ID", c.Telegram.ChatID)
	c.Service.LogLevel = getenvDefault("LOG_LEVEL", c.Service.LogLevel)
	c.HTTP.Addr = getenvDefault("HTTP_ADDR", c.HTTP.Addr)
	c.Redis.Addr = getenvDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenvDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Feed.URL = getenvDefault("FEED_URL", c.Feed.URL)
	c.Gateway.Mode = getenvDefault("GATEWAY_MODE", c.Gateway.Mode)
	c.Gateway.BaseURL = getenvDefault("BROKER_BASE_URL", c.Gateway.BaseURL)
	c.Gateway.APIKey = getenvDefault("BROKER_API_KEY", c.Gateway.APIKey)
	c.Gateway.AccessToken = getenvDefault("BROKER_ACCESS_TOKEN", c.Gateway.AccessToken)
	c.Dispatcher.TickQueueSize = intFromEnv("TICK_QUEUE_SIZE", c.Dispatcher.TickQueueSize)
	c.Dispatcher.CandleQueueSize = intFromEnv("CANDLE_QUEUE_SIZE", c.Dispatcher.CandleQueueSize)
	c.Dispatcher.Concurrency = intFromEnv("ENGINE_CONCURRENCY", c.Dispatcher.Concurrency)
	c.Reservation.Backend = getenvDefault("RESERVATION_BACKEND", c.Reservation.Backend)
	c.Reservation.LockTTL = durationFromEnv("RESERVATION_LOCK_TTL", c.Reservation.LockTTL)
	c.Reservation.MaxTradesPerSymbol = intFromEnv("MAX_TRADES_PER_SYMBOL", c.Reservation.MaxTradesPerSymbol)
	c.Exit.CloseOnFailure = boolFromEnv("EXIT_CLOSE_ON_FAILURE", c.Exit.CloseOnFailure)
	c.Exit.BufferPct = floatFromEnv("EXIT_BUFFER_PCT", c.Exit.BufferPct)
	c.Journal.Driver = getenvDefault("JOURNAL_DRIVER", c.Journal.Driver)
}

func (c *Config) fillStrategies() {
	if c.Strategies == nil {
		c.Strategies = make(map[models.Side]models.StrategySettings, len(models.AllSides))
	}
	for _, side := range models.AllSides {
		s, ok := c.Strategies[side]
		if !ok {
			c.Strategies[side] = models.DefaultSettings(side)
			continue
		}
		// volume_criteria не указан — дефолтная матрица; явный [] отключает фильтр
		if s.VolumeMatrix == nil {
			s.VolumeMatrix = models.DefaultVolumeMatrix()
			c.Strategies[side] = s
		}
	}
}

func (c *Config) Validate() error {
	if c.Dispatcher.TickQueueSize <= 0 || c.Dispatcher.CandleQueueSize <= 0 {
		return errors.New("dispatcher queue sizes must be positive")
	}
	if c.Dispatcher.Concurrency <= 0 || c.Dispatcher.ActionWorkers <= 0 {
		return errors.New("dispatcher concurrency must be positive")
	}
	switch strings.ToLower(c.Reservation.Backend) {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("unknown reservation backend %q", c.Reservation.Backend)
	}
	switch strings.ToLower(c.Gateway.Mode) {
	case "rest", "paper":
	default:
		return fmt.Errorf("unknown gateway mode %q", c.Gateway.Mode)
	}
	switch strings.ToLower(c.Journal.Driver) {
	case "postgres", "sqlite", "none", "":
	default:
		return fmt.Errorf("unknown journal driver %q", c.Journal.Driver)
	}
	if c.Reservation.MaxTradesPerSymbol <= 0 {
		return errors.New("max_trades_per_symbol must be positive")
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
