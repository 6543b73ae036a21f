package engine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/backtest-service/internal/model"
)

func equityCurve(start time.Time, values ...float64) []model.EquityPoint {
	curve := make([]model.EquityPoint, len(values))
	for i, v := range values {
		curve[i] = model.EquityPoint{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Equity:    v,
		}
	}
	return curve
}

func filledOrder(side string, qty, price float64, at time.Time) model.Order {
	return model.Order{
		Symbol:         "BTCUSDT",
		Side:           side,
		Quantity:       qty,
		AveragePrice:   &price,
		FilledQuantity: qty,
		Status:         model.OrderStatusFilled,
		Timestamp:      at,
	}
}

func TestComputeMetricsFlatEquity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := equityCurve(start, 1000, 1000, 1000, 1000)

	m := ComputeMetrics(1000, nil, curve, start, start.Add(3*24*time.Hour))

	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.SharpeRatio, "zero-variance returns must not divide by zero")
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 0, m.TotalTrades)
}

func TestSharpeZeroWithTooFewSamples(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := equityCurve(start, 1000, 1100)

	m := ComputeMetrics(1000, nil, curve, start, start.Add(24*time.Hour))
	assert.Equal(t, 0.0, m.SharpeRatio)
}

func TestMaxDrawdown(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := equityCurve(start, 100, 120, 90, 110)

	m := ComputeMetrics(100, nil, curve, start, start.Add(3*24*time.Hour))
	assert.InDelta(t, 0.25, m.MaxDrawdown, 1e-9)
	assert.GreaterOrEqual(t, m.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, m.MaxDrawdown, 1.0)
}

func TestTotalAndAnnualReturn(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(365 * 24 * time.Hour)
	curve := []model.EquityPoint{
		{Timestamp: start, Equity: 1000},
		{Timestamp: end, Equity: 1100},
	}

	m := ComputeMetrics(1000, nil, curve, start, end)
	assert.InDelta(t, 0.1, m.TotalReturn, 1e-9)
	assert.InDelta(t, 0.1, m.AnnualReturn, 1e-6, "a one-year span annualizes to the total return")
}

func TestFIFOMatchingAcrossLots(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []model.Order{
		filledOrder(model.SideBuy, 1, 100, at),
		filledOrder(model.SideBuy, 1, 110, at.Add(time.Hour)),
		// Sells 2 at 105: +5 against the 100 lot, -5 against the 110 lot.
		filledOrder(model.SideSell, 2, 105, at.Add(2*time.Hour)),
	}

	m := ComputeMetrics(1000, trades, nil, at, at.Add(2*time.Hour))
	assert.Equal(t, 1, m.TotalTrades, "one sell closing multiple lots is one round trip")
	assert.Equal(t, 0, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 0.0, m.TotalProfit-m.TotalLoss, 1e-9)
}

func TestWinRateAndProfitFactor(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []model.Order{
		filledOrder(model.SideBuy, 1, 100, at),
		filledOrder(model.SideSell, 1, 110, at.Add(time.Hour)), // +10
		filledOrder(model.SideBuy, 1, 100, at.Add(2*time.Hour)),
		filledOrder(model.SideSell, 1, 95, at.Add(3*time.Hour)), // -5
	}

	m := ComputeMetrics(1000, trades, nil, at, at.Add(3*time.Hour))
	assert.Equal(t, 2, m.TotalTrades)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
	assert.InDelta(t, 10.0, m.TotalProfit, 1e-9)
	assert.InDelta(t, 5.0, m.TotalLoss, 1e-9)
	assert.InDelta(t, 2.0, m.ProfitFactor, 1e-9)
}

func TestProfitFactorInfiniteWithoutLosses(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []model.Order{
		filledOrder(model.SideBuy, 1, 100, at),
		filledOrder(model.SideSell, 1, 120, at.Add(time.Hour)),
	}

	m := ComputeMetrics(1000, trades, nil, at, at.Add(time.Hour))
	assert.True(t, math.IsInf(m.ProfitFactor, 1))

	// JSON has no +Inf, so the field degrades to null.
	data, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["profit_factor"])
}

func TestRejectedOrdersExcludedFromMatching(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rejected := filledOrder(model.SideSell, 1, 110, at.Add(time.Hour))
	rejected.Status = model.OrderStatusRejected
	trades := []model.Order{
		filledOrder(model.SideBuy, 1, 100, at),
		rejected,
	}

	m := ComputeMetrics(1000, trades, nil, at, at.Add(time.Hour))
	assert.Equal(t, 0, m.TotalTrades)
}

func TestDrawdownWithEmptyCurve(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := ComputeMetrics(1000, nil, nil, at, at)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.TotalReturn)
}
