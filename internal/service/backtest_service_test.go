package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/config"
	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/eventbus"
	"github.com/yourorg/backtest-service/internal/model"
	"github.com/yourorg/backtest-service/internal/strategy"
)

func testBacktestConfig() config.BacktestConfig {
	return config.BacktestConfig{
		DefaultInitialCapital: 100000,
		MaxCandles:            500000,
	}
}

func seedCandles(store *memCandleStore, closes ...float64) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Symbol:    "BTCUSDT",
			Source:    "binance",
			Interval:  model.Interval1d,
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1,
		}
	}
	_ = store.SaveCandles(context.Background(), candles)
}

func backtestRequest() *model.BacktestRequest {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.BacktestRequest{
		Symbol:         "BTCUSDT",
		Source:         "binance",
		Interval:       model.Interval1d,
		StartTime:      start,
		EndTime:        start.Add(30 * 24 * time.Hour),
		Strategy:       "sma_cross",
		StrategyParams: map[string]float64{"fast_period": 2, "slow_period": 3, "quantity": 1},
		InitialCapital: 1000,
	}
}

func TestRunBacktestEndToEnd(t *testing.T) {
	store := &memCandleStore{}
	seedCandles(store, 10, 9, 8, 7, 10, 13, 6)
	svc := NewBacktestService(store, strategy.NewRegistry(), eventbus.New(), testBacktestConfig(), zap.NewNop())

	result, err := svc.RunBacktest(context.Background(), backtestRequest())
	require.NoError(t, err)

	require.Len(t, result.Trades, 2, "the cross up/down series produces one round trip")
	assert.Equal(t, model.SideBuy, result.Trades[0].Side)
	assert.Equal(t, model.SideSell, result.Trades[1].Side)
	assert.Len(t, result.EquityCurve, 7)

	// Bought 1 at 10, sold 1 at 6: a 4-unit loss on 1000 capital.
	assert.InDelta(t, -0.004, result.Performance.TotalReturn, 1e-9)
	assert.Equal(t, 1, result.Performance.LosingTrades)
}

func TestRunBacktestNoStoredData(t *testing.T) {
	svc := NewBacktestService(&memCandleStore{}, strategy.NewRegistry(), eventbus.New(), testBacktestConfig(), zap.NewNop())

	_, err := svc.RunBacktest(context.Background(), backtestRequest())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestRunBacktestUnknownStrategy(t *testing.T) {
	svc := NewBacktestService(&memCandleStore{}, strategy.NewRegistry(), eventbus.New(), testBacktestConfig(), zap.NewNop())

	req := backtestRequest()
	req.Strategy = "momentum"
	_, err := svc.RunBacktest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestRunBacktestInvalidRange(t *testing.T) {
	svc := NewBacktestService(&memCandleStore{}, strategy.NewRegistry(), eventbus.New(), testBacktestConfig(), zap.NewNop())

	req := backtestRequest()
	req.EndTime = req.StartTime
	_, err := svc.RunBacktest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestRunBacktestAppliesDefaultCapital(t *testing.T) {
	store := &memCandleStore{}
	seedCandles(store, 100, 100, 100, 100)
	svc := NewBacktestService(store, strategy.NewRegistry(), eventbus.New(), testBacktestConfig(), zap.NewNop())

	req := backtestRequest()
	req.InitialCapital = 0
	result, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.EquityCurve)
	assert.Equal(t, 100000.0, result.EquityCurve[0].Equity)
}

func TestStrategiesListing(t *testing.T) {
	svc := NewBacktestService(&memCandleStore{}, strategy.NewRegistry(), eventbus.New(), testBacktestConfig(), zap.NewNop())
	assert.Contains(t, svc.Strategies(), "sma_cross")
}
