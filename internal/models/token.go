package models

import "time"

// TokenSnapshot is a point-in-time read of one token from the upstream provider.
// Rank is the 1-based position in the full trending list.
type TokenSnapshot struct {
	Token                 string  `json:"token"`
	Network               string  `json:"network"`
	Name                  string  `json:"name"`
	Symbol                string  `json:"symbol"`
	Rank                  int     `json:"rank"`
	Price                 float64 `json:"price"`
	Liquidity             float64 `json:"liquidity"`
	MarketCap             float64 `json:"marketCap"`
	Volume24h             float64 `json:"volume24h"`
	PriceChange24hPercent float64 `json:"priceChange24hPercent"`
}

// TokenSample is one persisted history point for the analysis charts.
type TokenSample struct {
	ID        uint    `gorm:"primaryKey"`
	Network   string  `gorm:"size:32;index:idx_sample_token,priority:1;not null"`
	Token     string  `gorm:"size:128;index:idx_sample_token,priority:2;not null"`
	Name      string  `gorm:"size:255"`
	Symbol    string  `gorm:"size:64"`
	Price     float64 `gorm:"not null"`
	MarketCap float64
	SampledAt time.Time `gorm:"index;not null"`
}
