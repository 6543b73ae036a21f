// Package adapter defines the market source contract and its
// implementations. The core depends on vendors only through this contract.
package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

// MarketAdapter normalizes one exchange/fund source into the service's
// data model. Implementations return errors, never panic, across this
// boundary, and return candles in ascending timestamp order.
type MarketAdapter interface {
	Name() string
	AssetType() string
	CheckConnection(ctx context.Context) error
	GetProducts(ctx context.Context) ([]model.Product, error)
	GetTicker(ctx context.Context, symbol string) (model.Ticker, error)
	GetCandles(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.Candle, error)
}

// Registry holds the closed set of known adapters keyed by
// (asset type, source name). It is populated at wiring time; components
// receive it explicitly rather than through globals.
type Registry struct {
	adapters map[string]MarketAdapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...MarketAdapter) *Registry {
	r := &Registry{adapters: make(map[string]MarketAdapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter, replacing any previous registration for the
// same (asset type, source).
func (r *Registry) Register(a MarketAdapter) {
	r.adapters[registryKey(a.AssetType(), a.Name())] = a
}

// Resolve returns the adapter for (assetType, source), or a config error
// when none is registered.
func (r *Registry) Resolve(assetType, source string) (MarketAdapter, error) {
	a, ok := r.adapters[registryKey(assetType, source)]
	if !ok {
		return nil, errs.New(errs.KindConfig,
			"no market adapter registered for asset type %q and source %q", assetType, source)
	}
	return a, nil
}

func registryKey(assetType, source string) string {
	return fmt.Sprintf("%s/%s", strings.ToLower(assetType), strings.ToLower(source))
}
