package service

import (
	"context"
	"os"

	"breakout_bot/internal/book"
	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type seedFile struct {
	Instruments []models.MarketRef `yaml:"instruments"`
}

// LoadSeed читает YAML со списком инструментов. Символы нормализуются,
// записи без токена или символа отбрасываются.
func LoadSeed(path string) ([]models.MarketRef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed %s", path)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "parse seed %s", path)
	}
	out := make([]models.MarketRef, 0, len(f.Instruments))
	for _, r := range f.Instruments {
		r.Symbol = helper.NormSymbol(r.Symbol)
		if r.Token == 0 || r.Symbol == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Universe решает, откуда брать инструменты: кэш sync, иначе seed-файл.
type Universe struct {
	store    RefStore
	seedPath string
	log      *zap.Logger
}

func NewUniverse(store RefStore, seedPath string, log *zap.Logger) *Universe {
	if log == nil {
		log = zap.NewNop()
	}
	return &Universe{store: store, seedPath: seedPath, log: log}
}

func (u *Universe) Refs(ctx context.Context) ([]models.MarketRef, error) {
	refs, err := u.store.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		u.log.Info("[BOOT] universe from market cache", zap.Int("instruments", len(refs)))
		return refs, nil
	}
	if u.seedPath == "" {
		return nil, nil
	}
	refs, err = LoadSeed(u.seedPath)
	if err != nil {
		return nil, err
	}
	u.log.Info("[BOOT] universe from seed file", zap.String("path", u.seedPath), zap.Int("instruments", len(refs)))
	return refs, nil
}

// Load заливает инструменты в Book.
func (u *Universe) Load(ctx context.Context, b *book.Book) (int, error) {
	refs, err := u.Refs(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range refs {
		b.Upsert(r)
	}
	return len(refs), nil
}

// SyncSet — что пересчитывать ночью: seed плюс всё, что уже лежит в кэше.
// Дубли по токену схлопываются, символ берётся из seed.
func (u *Universe) SyncSet(ctx context.Context) ([]models.MarketRef, error) {
	cached, err := u.store.All(ctx)
	if err != nil {
		return nil, err
	}
	byToken := make(map[int64]models.MarketRef, len(cached))
	for _, r := range cached {
		byToken[r.Token] = models.MarketRef{Token: r.Token, Symbol: r.Symbol}
	}
	if u.seedPath != "" {
		seed, err := LoadSeed(u.seedPath)
		if err != nil {
			return nil, err
		}
		for _, r := range seed {
			byToken[r.Token] = models.MarketRef{Token: r.Token, Symbol: r.Symbol}
		}
	}
	out := make([]models.MarketRef, 0, len(byToken))
	for _, r := range byToken {
		out = append(out, r)
	}
	sortRefs(out)
	return out, nil
}
