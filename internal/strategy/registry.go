// Package strategy holds the built-in strategy implementations and the
// factory registry that stands in for dynamic strategy dispatch.
package strategy

import (
	"sort"

	"github.com/yourorg/backtest-service/internal/engine"
	"github.com/yourorg/backtest-service/internal/errs"
)

// Factory builds a fresh strategy instance from parameters. Each backtest
// run gets its own instance so indicator state is never shared.
type Factory func(params map[string]float64) (engine.Strategy, error)

// Registry is the closed set of known strategies keyed by name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with all built-in strategies registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("sma_cross", NewSMACross)
	return r
}

// Register adds a strategy factory under name.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Create builds a strategy by name, or returns a config error for an
// unknown name or invalid parameters.
func (r *Registry) Create(name string, params map[string]float64) (engine.Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errs.New(errs.KindConfig, "unknown strategy %q", name)
	}
	return factory(params)
}

// Names lists the registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
