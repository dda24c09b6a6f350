package models

// MarketRef — справочные данные инструмента, которые готовит sync-джоба.
type MarketRef struct {
	Token     int64   `json:"token" yaml:"token"`
	Symbol    string  `json:"symbol" yaml:"symbol"`
	SMA       float64 `json:"sma" yaml:"sma"`
	PDH       float64 `json:"pdh" yaml:"pdh"`
	PDL       float64 `json:"pdl" yaml:"pdl"`
	PrevClose float64 `json:"prev_close" yaml:"prev_close"`
	SyncedAt  string  `json:"synced_at,omitempty" yaml:"synced_at,omitempty"`
}

// HasLevels — без PDH/PDL квалификация молча пропускается.
func (r MarketRef) HasLevels() bool { return r.PDH > 0 && r.PDL > 0 }
