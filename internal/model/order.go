package model

import (
	"time"
)

// Order sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order statuses. The engine has no partial-fill model: every accepted
// order fills in full and immediately.
const (
	OrderStatusCreated  = "created"
	OrderStatusFilled   = "filled"
	OrderStatusRejected = "rejected"
)

// OrderSignal is a strategy's trade intent. A nil Price means a market
// order; the orchestrator resolves the execution price from the candle.
type OrderSignal struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     *float64  `json:"price,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is one entry in the simulated trade ledger.
type Order struct {
	ID             int64     `json:"id,omitempty"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Quantity       float64   `json:"quantity"`
	Price          *float64  `json:"price,omitempty"`
	AveragePrice   *float64  `json:"average_price,omitempty"`
	FilledQuantity float64   `json:"filled_quantity"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// Position is an open holding marked to the latest seen price.
// Invariant: UnrealizedPnL == (CurrentPrice - AverageCost) * Quantity.
type Position struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AverageCost   float64   `json:"average_cost"`
	CurrentPrice  float64   `json:"current_price"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	RealizedPnL   float64   `json:"realized_pnl"`
	LastUpdated   time.Time `json:"last_updated"`
}
