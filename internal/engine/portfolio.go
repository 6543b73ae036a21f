// Package engine implements the simulated account, the candle replay loop
// and the performance analytics derived from a run.
package engine

import (
	"sync"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

// Portfolio owns cash, positions and the trade ledger of one simulation.
// It is the only authority allowed to mutate simulated account state; all
// mutation is serialized behind its internal mutex and callers never lock.
type Portfolio struct {
	mu             sync.Mutex
	cash           float64
	initialCapital float64
	positions      map[string]*model.Position
	trades         []model.Order
	nextOrderID    int64
}

// NewPortfolio creates a portfolio funded with initialCapital.
func NewPortfolio(initialCapital float64) *Portfolio {
	return &Portfolio{
		cash:           initialCapital,
		initialCapital: initialCapital,
		positions:      make(map[string]*model.Position),
		nextOrderID:    1,
	}
}

// ProcessOrder validates and fills an order atomically. Accepted orders
// fill in full at order.Price; rejections leave state untouched.
func (p *Portfolio) ProcessOrder(order model.Order) (model.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if order.Price == nil {
		order.Status = model.OrderStatusRejected
		return order, errs.New(errs.KindValidation, "order for %s has no price", order.Symbol)
	}
	if order.Quantity <= 0 {
		order.Status = model.OrderStatusRejected
		return order, errs.New(errs.KindValidation, "order for %s has non-positive quantity %f", order.Symbol, order.Quantity)
	}

	price := *order.Price

	switch order.Side {
	case model.SideBuy:
		cost := price * order.Quantity
		if cost > p.cash {
			order.Status = model.OrderStatusRejected
			return order, errs.New(errs.KindValidation,
				"insufficient funds: cost %.8f exceeds cash %.8f", cost, p.cash)
		}
		p.cash -= cost
		pos, ok := p.positions[order.Symbol]
		if !ok {
			pos = &model.Position{Symbol: order.Symbol}
			p.positions[order.Symbol] = pos
		}
		// Weighted-average cost across the old lot and the new fill.
		totalQty := pos.Quantity + order.Quantity
		pos.AverageCost = (pos.AverageCost*pos.Quantity + cost) / totalQty
		pos.Quantity = totalQty
		pos.CurrentPrice = price
		pos.UnrealizedPnL = (pos.CurrentPrice - pos.AverageCost) * pos.Quantity
		pos.LastUpdated = order.Timestamp

	case model.SideSell:
		pos, ok := p.positions[order.Symbol]
		if !ok {
			order.Status = model.OrderStatusRejected
			return order, errs.New(errs.KindValidation, "no position held for %s", order.Symbol)
		}
		if pos.Quantity < order.Quantity {
			order.Status = model.OrderStatusRejected
			return order, errs.New(errs.KindValidation,
				"insufficient position for %s: held %.8f, requested %.8f", order.Symbol, pos.Quantity, order.Quantity)
		}
		p.cash += price * order.Quantity
		pos.RealizedPnL += (price - pos.AverageCost) * order.Quantity
		pos.Quantity -= order.Quantity
		pos.CurrentPrice = price
		pos.UnrealizedPnL = (pos.CurrentPrice - pos.AverageCost) * pos.Quantity
		pos.LastUpdated = order.Timestamp
		if pos.Quantity == 0 {
			delete(p.positions, order.Symbol)
		}

	default:
		order.Status = model.OrderStatusRejected
		return order, errs.New(errs.KindValidation, "unknown order side %q", order.Side)
	}

	order.ID = p.nextOrderID
	p.nextOrderID++
	order.Status = model.OrderStatusFilled
	avg := price
	order.AveragePrice = &avg
	order.FilledQuantity = order.Quantity
	p.trades = append(p.trades, order)
	return order, nil
}

// Update marks the position for candle.Symbol to market, if one exists.
func (p *Portfolio) Update(candle model.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[candle.Symbol]
	if !ok {
		return
	}
	pos.CurrentPrice = candle.Close
	pos.UnrealizedPnL = (pos.CurrentPrice - pos.AverageCost) * pos.Quantity
	pos.LastUpdated = candle.Timestamp
}

// TotalEquity returns cash plus the market value of all open positions.
func (p *Portfolio) TotalEquity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalEquityLocked()
}

func (p *Portfolio) totalEquityLocked() float64 {
	equity := p.cash
	for _, pos := range p.positions {
		equity += pos.Quantity * pos.CurrentPrice
	}
	return equity
}

// ReturnRate returns total equity over initial capital, minus one.
func (p *Portfolio) ReturnRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialCapital == 0 {
		return 0
	}
	return p.totalEquityLocked()/p.initialCapital - 1
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// InitialCapital returns the starting balance of the simulation.
func (p *Portfolio) InitialCapital() float64 {
	return p.initialCapital
}

// Position returns a copy of the open position for symbol, if any.
func (p *Portfolio) Position(symbol string) (model.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// Positions returns a copy of all open positions keyed by symbol.
func (p *Portfolio) Positions() map[string]model.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]model.Position, len(p.positions))
	for sym, pos := range p.positions {
		out[sym] = *pos
	}
	return out
}

// Trades returns a copy of the trade ledger in fill order.
func (p *Portfolio) Trades() []model.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Order, len(p.trades))
	copy(out, p.trades)
	return out
}

// HeldQuantity returns the open quantity for symbol, zero when flat.
func (p *Portfolio) HeldQuantity(symbol string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos, ok := p.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}
