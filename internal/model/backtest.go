package model

import (
	"encoding/json"
	"math"
	"time"
)

// BacktestConfig carries the simulation parameters for one run.
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital"`
	FeeRate        float64 `json:"fee_rate"`
	Slippage       float64 `json:"slippage"`
}

// EquityPoint samples total portfolio value after one replayed candle.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// PerformanceMetrics is the immutable analytics snapshot computed once
// per backtest run from the trade ledger and equity curve.
type PerformanceMetrics struct {
	TotalReturn   float64 `json:"total_return"`
	AnnualReturn  float64 `json:"annual_return"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	TotalProfit   float64 `json:"total_profit"`
	TotalLoss     float64 `json:"total_loss"`
}

// MarshalJSON emits an infinite profit factor as null, since JSON has no
// representation for +Inf and a lossless run would otherwise fail to encode.
func (m PerformanceMetrics) MarshalJSON() ([]byte, error) {
	type alias PerformanceMetrics
	out := struct {
		alias
		ProfitFactor *float64 `json:"profit_factor"`
	}{alias: alias(m)}
	if !math.IsInf(m.ProfitFactor, 0) && !math.IsNaN(m.ProfitFactor) {
		pf := m.ProfitFactor
		out.ProfitFactor = &pf
	}
	return json.Marshal(out)
}

// BacktestResult is the sole output of a backtest run, handed to the
// external persistence/reporting layer.
type BacktestResult struct {
	Trades      []Order            `json:"trades"`
	Performance PerformanceMetrics `json:"performance"`
	EquityCurve []EquityPoint      `json:"equity_curve"`
}

// BacktestRequest is the HTTP payload for running a backtest.
type BacktestRequest struct {
	Symbol         string             `json:"symbol" binding:"required"`
	Source         string             `json:"source" binding:"required"`
	Interval       string             `json:"interval" binding:"required"`
	StartTime      time.Time          `json:"start_time" binding:"required"`
	EndTime        time.Time          `json:"end_time" binding:"required"`
	Strategy       string             `json:"strategy" binding:"required"`
	StrategyParams map[string]float64 `json:"strategy_params,omitempty"`
	InitialCapital float64            `json:"initial_capital"`
	FeeRate        float64            `json:"fee_rate"`
	Slippage       float64            `json:"slippage"`
}
