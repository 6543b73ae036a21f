package engine

import (
	"math"
	"time"

	"github.com/yourorg/backtest-service/internal/model"
)

// Trading periods per year assumed for Sharpe annualization.
const annualizationPeriods = 252

// ComputeMetrics derives the performance snapshot from a finished run.
// It is a pure function of its inputs and mutates nothing.
func ComputeMetrics(
	initialCapital float64,
	trades []model.Order,
	equityCurve []model.EquityPoint,
	firstCandle time.Time,
	lastCandle time.Time,
) model.PerformanceMetrics {
	m := model.PerformanceMetrics{}

	finalEquity := initialCapital
	if len(equityCurve) > 0 {
		finalEquity = equityCurve[len(equityCurve)-1].Equity
	}
	if initialCapital > 0 {
		m.TotalReturn = finalEquity/initialCapital - 1
	}

	years := lastCandle.Sub(firstCandle).Hours() / 24 / 365
	if years > 0 {
		m.AnnualReturn = math.Pow(1+m.TotalReturn, 1/years) - 1
	}

	m.MaxDrawdown = maxDrawdown(equityCurve)
	m.SharpeRatio = sharpeRatio(equityCurve)

	wins, losses, totalProfit, totalLoss := matchRoundTrips(trades)
	m.WinningTrades = wins
	m.LosingTrades = losses
	m.TotalProfit = totalProfit
	m.TotalLoss = totalLoss
	m.TotalTrades = wins + losses
	if m.TotalTrades > 0 {
		m.WinRate = float64(wins) / float64(m.TotalTrades)
	}
	switch {
	case totalLoss > 0:
		m.ProfitFactor = totalProfit / totalLoss
	case totalProfit > 0:
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}

	return m
}

// maxDrawdown scans the equity curve tracking the running peak and
// returns the largest peak-to-trough decline as a fraction of the peak.
func maxDrawdown(equityCurve []model.EquityPoint) float64 {
	var peak, maxDD float64
	for _, point := range equityCurve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - point.Equity) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpeRatio computes mean over standard deviation of per-step equity
// returns, annualized at 252 periods. Zero when variance is zero or
// fewer than two return samples exist.
func sharpeRatio(equityCurve []model.EquityPoint) float64 {
	var returns []float64
	for i := 1; i < len(equityCurve); i++ {
		prev := equityCurve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (equityCurve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return mean / stddev * math.Sqrt(annualizationPeriods)
}

type lot struct {
	quantity float64
	price    float64
}

// matchRoundTrips pairs entries to exits per symbol with FIFO lot
// matching and accumulates realized profit and loss per closed round
// trip. A sell closing against multiple lots still counts as one trade.
func matchRoundTrips(trades []model.Order) (wins, losses int, totalProfit, totalLoss float64) {
	lots := make(map[string][]lot)

	for _, trade := range trades {
		if trade.Status != model.OrderStatusFilled || trade.AveragePrice == nil {
			continue
		}
		fillPrice := *trade.AveragePrice

		switch trade.Side {
		case model.SideBuy:
			lots[trade.Symbol] = append(lots[trade.Symbol], lot{
				quantity: trade.FilledQuantity,
				price:    fillPrice,
			})

		case model.SideSell:
			remaining := trade.FilledQuantity
			var pnl float64
			queue := lots[trade.Symbol]
			for remaining > 0 && len(queue) > 0 {
				matched := math.Min(remaining, queue[0].quantity)
				pnl += (fillPrice - queue[0].price) * matched
				remaining -= matched
				queue[0].quantity -= matched
				if queue[0].quantity <= 0 {
					queue = queue[1:]
				}
			}
			lots[trade.Symbol] = queue

			if pnl > 0 {
				wins++
				totalProfit += pnl
			} else {
				losses++
				totalLoss += -pnl
			}
		}
	}
	return wins, losses, totalProfit, totalLoss
}
