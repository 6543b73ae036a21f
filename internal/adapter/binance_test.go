package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

func klineRow(openTime time.Time, open, high, low, close, volume float64) string {
	return fmt.Sprintf(`[%d,"%f","%f","%f","%f","%f",%d]`,
		openTime.UnixMilli(), open, high, low, close, volume,
		openTime.Add(time.Hour).UnixMilli())
}

func TestBinanceGetCandles(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))

		fmt.Fprintf(w, "[%s,%s]",
			klineRow(start, 100, 105, 99, 104, 12),
			klineRow(start.Add(time.Hour), 104, 110, 103, 109, 8))
	}))
	defer server.Close()

	a := NewBinanceAdapter(server.URL, zap.NewNop())
	candles, err := a.GetCandles(context.Background(), "BTCUSDT", start, start.Add(2*time.Hour), "1h")
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, "BTCUSDT", candles[0].Symbol)
	assert.Equal(t, "binance", candles[0].Source)
	assert.Equal(t, model.Interval1h, candles[0].Interval)
	assert.Equal(t, start, candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 104.0, candles[0].Close)
	assert.True(t, candles[1].Timestamp.After(candles[0].Timestamp))
}

func TestBinanceGetCandlesSkipsMalformedRows(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[["garbage"],%s]`, klineRow(start, 100, 105, 99, 104, 12))
	}))
	defer server.Close()

	a := NewBinanceAdapter(server.URL, zap.NewNop())
	candles, err := a.GetCandles(context.Background(), "BTCUSDT", start, start.Add(time.Hour), "1h")
	require.NoError(t, err)
	assert.Len(t, candles, 1, "malformed rows are skipped, not fatal")
}

func TestBinanceErrorStatusIsAdapterError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer server.Close()

	a := NewBinanceAdapter(server.URL, zap.NewNop())
	_, err := a.GetCandles(context.Background(), "NOPE", time.Now().Add(-time.Hour), time.Now(), "1h")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindAdapter))
}

func TestBinanceGetTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ticker/price", r.URL.Path)
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"42001.50"}`)
	}))
	defer server.Close()

	a := NewBinanceAdapter(server.URL, zap.NewNop())
	ticker, err := a.GetTicker(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", ticker.Symbol)
	assert.Equal(t, 42001.50, ticker.Price)
}

func TestBinanceGetCandlesUnknownIntervalDefaultsToDaily(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotInterval string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	a := NewBinanceAdapter(server.URL, zap.NewNop())
	_, err := a.GetCandles(context.Background(), "BTCUSDT", start, start.Add(24*time.Hour), "2h")
	require.NoError(t, err)
	assert.Equal(t, model.Interval1d, gotInterval)
}

func TestBinanceCheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ping", r.URL.Path)
		fmt.Fprint(w, "{}")
	}))
	defer server.Close()

	a := NewBinanceAdapter(server.URL, zap.NewNop())
	assert.NoError(t, a.CheckConnection(context.Background()))

	server.Close()
	err := a.CheckConnection(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindAdapter))
}

func TestParseKlineFloat(t *testing.T) {
	assert.Equal(t, 1.5, parseKlineFloat("1.5"))
	assert.Equal(t, 0.0, parseKlineFloat(nil))
	assert.Equal(t, 0.0, parseKlineFloat(42))
	assert.Equal(t, 0.0, parseKlineFloat("not-a-number"))
}

func TestRegistryResolve(t *testing.T) {
	a := NewBinanceAdapter("", zap.NewNop())
	r := NewRegistry(a)

	resolved, err := r.Resolve("crypto", "binance")
	require.NoError(t, err)
	assert.Equal(t, a, resolved)

	// Lookup is case-insensitive.
	resolved, err = r.Resolve("Crypto", "Binance")
	require.NoError(t, err)
	assert.Equal(t, a, resolved)

	_, err = r.Resolve("stock", "binance")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
}
