package model

import (
	"time"
)

// Candle represents one normalized OHLCV bar for a symbol over an interval.
// The natural key is (symbol, source, interval, timestamp); re-ingestion
// upserts on that key and never duplicates rows.
type Candle struct {
	Symbol    string    `json:"symbol" db:"symbol"`
	Source    string    `json:"source" db:"source"`
	Interval  string    `json:"interval" db:"interval"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Open      float64   `json:"open" db:"open"`
	High      float64   `json:"high" db:"high"`
	Low       float64   `json:"low" db:"low"`
	Close     float64   `json:"close" db:"close"`
	Volume    float64   `json:"volume" db:"volume"`
}

// Ticker represents the latest price snapshot for a symbol
type Ticker struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Product represents a tradable instrument offered by a market source
type Product struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	AssetType string `json:"asset_type"`
	Exchange  string `json:"exchange"`
	Active    bool   `json:"active"`
}

// Asset types known to the chunking policy
const (
	AssetTypeCrypto = "crypto"
	AssetTypeStock  = "stock"
	AssetTypeFund   = "fund"
)
