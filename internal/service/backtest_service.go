package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/config"
	"github.com/yourorg/backtest-service/internal/engine"
	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/eventbus"
	"github.com/yourorg/backtest-service/internal/model"
	"github.com/yourorg/backtest-service/internal/strategy"
)

// BacktestService loads stored candles, builds the requested strategy and
// replays the range through the engine. Runs are synchronous; each run
// gets a fresh strategy instance and portfolio, so concurrent requests
// never share state.
type BacktestService struct {
	candles    CandleStore
	strategies *strategy.Registry
	bus        *eventbus.Bus
	cfg        config.BacktestConfig
	logger     *zap.Logger
}

// NewBacktestService creates a backtest service.
func NewBacktestService(
	candles CandleStore,
	strategies *strategy.Registry,
	bus *eventbus.Bus,
	cfg config.BacktestConfig,
	logger *zap.Logger,
) *BacktestService {
	return &BacktestService{
		candles:    candles,
		strategies: strategies,
		bus:        bus,
		cfg:        cfg,
		logger:     logger,
	}
}

// RunBacktest executes one backtest over stored candles.
func (s *BacktestService) RunBacktest(ctx context.Context, req *model.BacktestRequest) (*model.BacktestResult, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, errs.New(errs.KindConfig,
			"invalid date range: end %s is not after start %s", req.EndTime, req.StartTime)
	}

	strat, err := s.strategies.Create(req.Strategy, req.StrategyParams)
	if err != nil {
		return nil, err
	}

	runConfig := model.BacktestConfig{
		InitialCapital: req.InitialCapital,
		FeeRate:        req.FeeRate,
		Slippage:       req.Slippage,
	}
	if runConfig.InitialCapital == 0 {
		runConfig.InitialCapital = s.cfg.DefaultInitialCapital
	}
	if runConfig.FeeRate == 0 {
		runConfig.FeeRate = s.cfg.DefaultFeeRate
	}
	if runConfig.Slippage == 0 {
		runConfig.Slippage = s.cfg.DefaultSlippage
	}

	interval := model.NormalizeInterval(req.Interval)
	limit := s.cfg.MaxCandles
	candles, err := s.candles.GetCandles(ctx, req.Symbol, req.Source, interval,
		&req.StartTime, &req.EndTime, &limit)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, errs.New(errs.KindValidation,
			"no candles stored for %s/%s/%s in the requested range; import the data first",
			req.Symbol, req.Source, interval)
	}

	started := time.Now()
	runner := engine.NewRunner(runConfig, s.bus, s.logger)
	result, err := runner.Run(strat, candles)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Backtest finished",
		zap.String("symbol", req.Symbol),
		zap.String("strategy", req.Strategy),
		zap.Int("candles", len(candles)),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("totalReturn", result.Performance.TotalReturn),
		zap.Duration("elapsed", time.Since(started)))

	return result, nil
}

// Strategies lists the registered strategy names.
func (s *BacktestService) Strategies() []string {
	return s.strategies.Names()
}
