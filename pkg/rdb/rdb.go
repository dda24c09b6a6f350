package rdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// New открывает клиент и проверяет соединение.
func New(ctx context.Context, conf Config) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "ping redis %s", conf.Addr)
	}
	return c, nil
}

// Keys строит ключи с общим префиксом.
type Keys struct {
	Prefix string
}

func (k Keys) Join(parts ...string) string {
	out := k.Prefix
	for _, p := range parts {
		out += ":" + p
	}
	return out
}
