package strategy

import (
	talib "github.com/markcheno/go-talib"

	"github.com/yourorg/backtest-service/internal/engine"
	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

// SMACross is a long-only moving-average crossover strategy: it buys when
// the fast SMA crosses above the slow SMA and sells the whole position on
// the opposite cross. Indicator math comes from go-talib.
type SMACross struct {
	fastPeriod int
	slowPeriod int
	quantity   float64

	closes  []float64
	holding bool
}

// NewSMACross builds an SMACross from parameters fast_period, slow_period
// and quantity (all optional, defaults 10/30/1).
func NewSMACross(params map[string]float64) (engine.Strategy, error) {
	s := &SMACross{
		fastPeriod: 10,
		slowPeriod: 30,
		quantity:   1,
	}
	if v, ok := params["fast_period"]; ok {
		s.fastPeriod = int(v)
	}
	if v, ok := params["slow_period"]; ok {
		s.slowPeriod = int(v)
	}
	if v, ok := params["quantity"]; ok {
		s.quantity = v
	}

	if s.fastPeriod < 1 || s.slowPeriod < 2 {
		return nil, errs.New(errs.KindConfig,
			"sma_cross periods must be positive, got fast=%d slow=%d", s.fastPeriod, s.slowPeriod)
	}
	if s.fastPeriod >= s.slowPeriod {
		return nil, errs.New(errs.KindConfig,
			"sma_cross fast period %d must be below slow period %d", s.fastPeriod, s.slowPeriod)
	}
	if s.quantity <= 0 {
		return nil, errs.New(errs.KindConfig, "sma_cross quantity must be positive, got %f", s.quantity)
	}
	return s, nil
}

// Name returns the registry name of the strategy.
func (s *SMACross) Name() string { return "sma_cross" }

// Init resets indicator state for a fresh run.
func (s *SMACross) Init() error {
	s.closes = s.closes[:0]
	s.holding = false
	return nil
}

// Update appends the candle close to the rolling window.
func (s *SMACross) Update(candle model.Candle) error {
	s.closes = append(s.closes, candle.Close)
	// The window only needs enough history for the slow SMA plus the
	// previous bar used for cross detection.
	if max := s.slowPeriod + 2; len(s.closes) > max {
		s.closes = s.closes[len(s.closes)-max:]
	}
	return nil
}

// CheckSignal emits a market buy on a bullish cross and a market sell of
// the full position on a bearish cross.
func (s *SMACross) CheckSignal(candle model.Candle) *model.OrderSignal {
	if len(s.closes) < s.slowPeriod+1 {
		return nil
	}

	fast := talib.Sma(s.closes, s.fastPeriod)
	slow := talib.Sma(s.closes, s.slowPeriod)
	last := len(s.closes) - 1

	crossedUp := fast[last-1] <= slow[last-1] && fast[last] > slow[last]
	crossedDown := fast[last-1] >= slow[last-1] && fast[last] < slow[last]

	switch {
	case crossedUp && !s.holding:
		s.holding = true
		return &model.OrderSignal{
			Symbol:    candle.Symbol,
			Side:      model.SideBuy,
			Quantity:  s.quantity,
			Reason:    "fast SMA crossed above slow SMA",
			Timestamp: candle.Timestamp,
		}
	case crossedDown && s.holding:
		s.holding = false
		return &model.OrderSignal{
			Symbol:    candle.Symbol,
			Side:      model.SideSell,
			Quantity:  s.quantity,
			Reason:    "fast SMA crossed below slow SMA",
			Timestamp: candle.Timestamp,
		}
	}
	return nil
}
