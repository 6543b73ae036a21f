package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

const (
	binanceAPIBaseURL = "https://api.binance.com/api/v3"
	maxKlinesLimit    = 1000
)

// BinanceAdapter fetches crypto market data from the Binance REST API.
type BinanceAdapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBinanceAdapter creates a Binance market adapter. An empty baseURL
// selects the public API endpoint.
func NewBinanceAdapter(baseURL string, logger *zap.Logger) *BinanceAdapter {
	if baseURL == "" {
		baseURL = binanceAPIBaseURL
	}
	return &BinanceAdapter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the source identifier.
func (a *BinanceAdapter) Name() string { return "binance" }

// AssetType returns the asset class this adapter serves.
func (a *BinanceAdapter) AssetType() string { return model.AssetTypeCrypto }

// CheckConnection pings the API.
func (a *BinanceAdapter) CheckConnection(ctx context.Context) error {
	_, err := a.get(ctx, "/ping", nil)
	return err
}

// GetProducts retrieves all actively trading spot symbols.
func (a *BinanceAdapter) GetProducts(ctx context.Context) ([]model.Product, error) {
	body, err := a.get(ctx, "/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}

	var info struct {
		Symbols []struct {
			Symbol               string `json:"symbol"`
			Status               string `json:"status"`
			BaseAsset            string `json:"baseAsset"`
			QuoteAsset           string `json:"quoteAsset"`
			IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errs.Wrap(errs.KindAdapter, fmt.Errorf("failed to decode exchange info: %w", err))
	}

	products := make([]model.Product, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || !s.IsSpotTradingAllowed {
			continue
		}
		products = append(products, model.Product{
			Symbol:    s.Symbol,
			Name:      s.BaseAsset + "/" + s.QuoteAsset,
			AssetType: model.AssetTypeCrypto,
			Exchange:  "Binance",
			Active:    true,
		})
	}
	return products, nil
}

// GetTicker retrieves the latest price for a symbol.
func (a *BinanceAdapter) GetTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	body, err := a.get(ctx, "/ticker/price", params)
	if err != nil {
		return model.Ticker{}, err
	}

	var raw struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Ticker{}, errs.Wrap(errs.KindAdapter, fmt.Errorf("failed to decode ticker: %w", err))
	}
	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil {
		return model.Ticker{}, errs.Wrap(errs.KindAdapter, fmt.Errorf("invalid ticker price %q: %w", raw.Price, err))
	}
	return model.Ticker{
		Symbol:    raw.Symbol,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetCandles retrieves normalized candles for [start, end), paging through
// the klines endpoint in ascending order.
func (a *BinanceAdapter) GetCandles(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.Candle, error) {
	interval = model.NormalizeInterval(interval)

	var candles []model.Candle
	cursor := start
	for cursor.Before(end) {
		batch, err := a.getKlines(ctx, symbol, interval, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		candles = append(candles, batch...)

		last := batch[len(batch)-1].Timestamp
		next := last.Add(model.IntervalDuration(interval))
		if !next.After(cursor) {
			break
		}
		cursor = next
		if len(batch) < maxKlinesLimit {
			break
		}
	}
	return candles, nil
}

func (a *BinanceAdapter) getKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]model.Candle, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(maxKlinesLimit))
	params.Add("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	params.Add("endTime", strconv.FormatInt(end.UnixMilli(), 10))

	body, err := a.get(ctx, "/klines", params)
	if err != nil {
		return nil, err
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, errs.Wrap(errs.KindAdapter, fmt.Errorf("failed to decode klines: %w", err))
	}

	candles := make([]model.Candle, 0, len(rawKlines))
	for i, raw := range rawKlines {
		if len(raw) < 7 {
			a.logger.Warn("Skipping malformed kline",
				zap.String("symbol", symbol),
				zap.Int("index", i))
			continue
		}
		openTimeVal, ok := raw[0].(float64)
		if !ok {
			a.logger.Warn("Invalid kline open time",
				zap.String("symbol", symbol),
				zap.Int("index", i))
			continue
		}
		open := parseKlineFloat(raw[1])
		high := parseKlineFloat(raw[2])
		low := parseKlineFloat(raw[3])
		closePrice := parseKlineFloat(raw[4])
		volume := parseKlineFloat(raw[5])

		candles = append(candles, model.Candle{
			Symbol:    symbol,
			Source:    a.Name(),
			Interval:  interval,
			Timestamp: time.UnixMilli(int64(openTimeVal)).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return candles, nil
}

// Binance encodes kline prices as strings inside a JSON array.
func parseKlineFloat(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (a *BinanceAdapter) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := a.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindAdapter, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("Binance request failed",
			zap.String("path", path),
			zap.Error(err))
		return nil, errs.Wrap(errs.KindAdapter, fmt.Errorf("binance request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindAdapter, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Binance API error response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(body)))
		return nil, errs.New(errs.KindAdapter, "binance returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
