package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

func feedCloses(t *testing.T, s *SMACross, closes []float64) []*model.OrderSignal {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	signals := make([]*model.OrderSignal, len(closes))
	for i, c := range closes {
		candle := model.Candle{
			Symbol:    "BTCUSDT",
			Close:     c,
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
		}
		require.NoError(t, s.Update(candle))
		signals[i] = s.CheckSignal(candle)
	}
	return signals
}

func TestSMACrossBuyAndSellSignals(t *testing.T) {
	strat, err := NewSMACross(map[string]float64{
		"fast_period": 2,
		"slow_period": 3,
		"quantity":    1,
	})
	require.NoError(t, err)
	require.NoError(t, strat.Init())

	s := strat.(*SMACross)
	// Declines, rallies through the slow average, then breaks down.
	signals := feedCloses(t, s, []float64{10, 9, 8, 7, 10, 13, 6})

	require.NotNil(t, signals[4], "rally should trigger a bullish cross")
	assert.Equal(t, model.SideBuy, signals[4].Side)
	assert.Equal(t, 1.0, signals[4].Quantity)

	assert.Nil(t, signals[5], "no signal while the trend holds")

	require.NotNil(t, signals[6], "breakdown should trigger a bearish cross")
	assert.Equal(t, model.SideSell, signals[6].Side)

	for _, sig := range signals[:4] {
		assert.Nil(t, sig, "no signal before enough history accumulates")
	}
}

func TestSMACrossNoSellWithoutHolding(t *testing.T) {
	strat, err := NewSMACross(map[string]float64{"fast_period": 2, "slow_period": 3})
	require.NoError(t, err)
	require.NoError(t, strat.Init())

	s := strat.(*SMACross)
	// Straight decline produces bearish pressure but nothing is held.
	signals := feedCloses(t, s, []float64{13, 12, 11, 10, 9, 8, 7})
	for _, sig := range signals {
		assert.Nil(t, sig)
	}
}

func TestSMACrossInitResetsState(t *testing.T) {
	strat, err := NewSMACross(map[string]float64{"fast_period": 2, "slow_period": 3})
	require.NoError(t, err)
	s := strat.(*SMACross)

	require.NoError(t, s.Init())
	first := feedCloses(t, s, []float64{10, 9, 8, 7, 10, 13, 6})

	require.NoError(t, s.Init())
	second := feedCloses(t, s, []float64{10, 9, 8, 7, 10, 13, 6})

	for i := range first {
		if first[i] == nil {
			assert.Nil(t, second[i])
			continue
		}
		require.NotNil(t, second[i])
		assert.Equal(t, first[i].Side, second[i].Side)
	}
}

func TestSMACrossParamValidation(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]float64
	}{
		{"fast not below slow", map[string]float64{"fast_period": 30, "slow_period": 10}},
		{"equal periods", map[string]float64{"fast_period": 10, "slow_period": 10}},
		{"zero fast period", map[string]float64{"fast_period": 0}},
		{"negative quantity", map[string]float64{"quantity": -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSMACross(tc.params)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindConfig))
		})
	}
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()

	strat, err := r.Create("sma_cross", nil)
	require.NoError(t, err)
	assert.Equal(t, "sma_cross", strat.Name())

	_, err = r.Create("momentum", nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))

	assert.Contains(t, r.Names(), "sma_cross")
}

func TestRegistryCreatesFreshInstances(t *testing.T) {
	r := NewRegistry()

	a, err := r.Create("sma_cross", nil)
	require.NoError(t, err)
	b, err := r.Create("sma_cross", nil)
	require.NoError(t, err)
	assert.NotSame(t, a, b, "runs must never share indicator state")
}
