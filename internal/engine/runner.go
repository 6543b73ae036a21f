package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/eventbus"
	"github.com/yourorg/backtest-service/internal/model"
)

// Runner drives one deterministic candle-by-candle replay. The loop is
// intentionally single-threaded: reproducibility requires strict candle
// order, so no parallelism is permitted inside one run. Independent runs
// may execute in parallel, each with its own Runner and Portfolio.
type Runner struct {
	config model.BacktestConfig
	bus    *eventbus.Bus
	logger *zap.Logger
}

// NewRunner creates a backtest runner. The bus may be nil when no
// observer cares about per-run events.
func NewRunner(config model.BacktestConfig, bus *eventbus.Bus, logger *zap.Logger) *Runner {
	return &Runner{
		config: config,
		bus:    bus,
		logger: logger,
	}
}

// Run replays candles through the strategy against a fresh portfolio and
// returns the trade ledger, equity curve and derived performance metrics.
//
// Order rejections (insufficient funds or position) are non-fatal: the
// signal is dropped, an error event is emitted and the replay continues.
// Strategy init or update failures abort the run.
func (r *Runner) Run(strategy Strategy, candles []model.Candle) (*model.BacktestResult, error) {
	if r.config.InitialCapital <= 0 {
		return nil, errs.New(errs.KindConfig, "initial capital must be positive, got %f", r.config.InitialCapital)
	}
	if len(candles) == 0 {
		return nil, errs.New(errs.KindValidation, "no candles to replay")
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp.Before(candles[i-1].Timestamp) {
			return nil, errs.New(errs.KindValidation,
				"candles out of order at index %d: %s before %s",
				i, candles[i].Timestamp, candles[i-1].Timestamp)
		}
	}

	if err := strategy.Init(); err != nil {
		return nil, errs.Wrap(errs.KindStrategy, fmt.Errorf("strategy %s init failed: %w", strategy.Name(), err))
	}

	portfolio := NewPortfolio(r.config.InitialCapital)
	equityCurve := make([]model.EquityPoint, 0, len(candles))

	for _, candle := range candles {
		if err := strategy.Update(candle); err != nil {
			return nil, errs.Wrap(errs.KindStrategy, fmt.Errorf("strategy %s update failed: %w", strategy.Name(), err))
		}

		if signal := strategy.CheckSignal(candle); signal != nil {
			r.publish(model.EventSignal, signal)
			r.executeSignal(portfolio, signal, candle)
		}

		portfolio.Update(candle)
		equityCurve = append(equityCurve, model.EquityPoint{
			Timestamp: candle.Timestamp,
			Equity:    portfolio.TotalEquity(),
		})
	}

	trades := portfolio.Trades()
	metrics := ComputeMetrics(
		r.config.InitialCapital,
		trades,
		equityCurve,
		candles[0].Timestamp,
		candles[len(candles)-1].Timestamp,
	)

	return &model.BacktestResult{
		Trades:      trades,
		Performance: metrics,
		EquityCurve: equityCurve,
	}, nil
}

// executeSignal resolves the execution price, builds an order and submits
// it to the portfolio. Limit signals fill at the signal price; market
// signals fill at the candle close adjusted for slippage. The fee rate is
// folded into the fill price the same way.
func (r *Runner) executeSignal(portfolio *Portfolio, signal *model.OrderSignal, candle model.Candle) {
	var price float64
	if signal.Price != nil {
		price = *signal.Price
	} else {
		switch signal.Side {
		case model.SideBuy:
			price = candle.Close * (1 + r.config.Slippage)
		case model.SideSell:
			price = candle.Close * (1 - r.config.Slippage)
		default:
			price = candle.Close
		}
	}
	switch signal.Side {
	case model.SideBuy:
		price *= 1 + r.config.FeeRate
	case model.SideSell:
		price *= 1 - r.config.FeeRate
	}

	order := model.Order{
		Symbol:    signal.Symbol,
		Side:      signal.Side,
		Quantity:  signal.Quantity,
		Price:     &price,
		Status:    model.OrderStatusCreated,
		Timestamp: candle.Timestamp,
	}

	filled, err := portfolio.ProcessOrder(order)
	if err != nil {
		r.logger.Warn("Order rejected",
			zap.String("symbol", signal.Symbol),
			zap.String("side", signal.Side),
			zap.Float64("quantity", signal.Quantity),
			zap.Error(err))
		r.publish(model.EventError, model.ErrorPayload{
			Scope:   "backtest",
			Message: err.Error(),
		})
		return
	}
	r.publish(model.EventOrder, filled)
	r.publish(model.EventTrade, filled)
}

func (r *Runner) publish(eventType model.EventType, payload interface{}) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventType, payload)
}
