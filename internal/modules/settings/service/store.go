package service

import (
	"context"
	"sync"

	"breakout_bot/internal/models"

	"github.com/pkg/errors"
)

var ErrUnknownSide = errors.New("unknown strategy side")

// Store — сохранённые настройки сторон. ok=false, если сторона ещё не сохранялась.
type Store interface {
	Load(ctx context.Context, side models.Side) (s models.StrategySettings, ok bool, err error)
	Save(ctx context.Context, side models.Side, s models.StrategySettings) error
}

// Validate отсекает то, с чем движок не сможет торговать.
func Validate(s models.StrategySettings) error {
	if s.TotalTrades < 0 {
		return errors.New("total_trades must be >= 0")
	}
	if s.RiskAmount < 0 {
		return errors.New("risk_trade_1 must be >= 0")
	}
	for i, t := range s.VolumeMatrix {
		if t.MinSMA < 0 || t.Multiplier < 0 || t.MinTurnoverCr < 0 {
			return errors.Errorf("volume_criteria[%d]: negative value", i)
		}
	}
	return nil
}

type MemoryStore struct {
	mu sync.RWMutex
	m  map[models.Side]models.StrategySettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[models.Side]models.StrategySettings)}
}

func (s *MemoryStore) Load(_ context.Context, side models.Side) (models.StrategySettings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[side]
	return v, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, side models.Side, v models.StrategySettings) error {
	if _, ok := models.ParseSide(string(side)); !ok {
		return ErrUnknownSide
	}
	s.mu.Lock()
	s.m[side] = v
	s.mu.Unlock()
	return nil
}
