package service

import (
	"context"

	"breakout_bot/internal/models"
)

// Journal — история сделок, переживающая рестарт. Opened и Closed идемпотентны:
// запись по id перезаписывается последним снимком.
type Journal interface {
	Opened(ctx context.Context, t models.Trade) error
	Closed(ctx context.Context, t models.Trade) error
	Recent(ctx context.Context, limit int) ([]models.Trade, error)
}

const defaultRecent = 100

func recentLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultRecent
	}
	return limit
}
