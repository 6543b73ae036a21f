package engine

import (
	"github.com/yourorg/backtest-service/internal/model"
)

// Strategy generates trade signals from replayed candles. Indicator math
// is the strategy's own concern; the engine only drives the lifecycle.
//
// Init and Update errors are fatal to a run. CheckSignal returns nil when
// the strategy has nothing to do for the current candle.
type Strategy interface {
	Name() string
	Init() error
	Update(candle model.Candle) error
	CheckSignal(candle model.Candle) *model.OrderSignal
}
