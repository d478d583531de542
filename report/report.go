// Package report computes performance analytics over the engine's closed
// trades. It reads position history through the public snapshot API only,
// so it stays decoupled from the engine internals.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"papertrader/engine"
)

// Summary aggregates closed-trade performance.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent of closed trades with positive profit

	NetProfit    float64
	GrossProfit  float64
	GrossLoss    float64 // magnitude, >= 0
	ProfitFactor float64 // gross profit / gross loss, 0 when no losses
	AverageWin   float64
	AverageLoss  float64
	TotalFees    float64

	AverageHoldTime time.Duration
	SharpeRatio     float64 // mean / stddev of per-trade percent returns
}

// Summarize computes a Summary from closed positions. Open positions are
// ignored.
func Summarize(positions []engine.Position) Summary {
	var s Summary
	var holdTotal time.Duration
	var returns []float64

	for _, p := range positions {
		if p.Status != engine.PositionClosed {
			continue
		}

		s.TotalTrades++
		s.NetProfit += p.Profit.Amount
		s.TotalFees += p.Fees
		holdTotal += p.CloseTime.Sub(p.OpenTime)
		returns = append(returns, p.Profit.Percent)

		if p.Profit.Amount > 0 {
			s.WinningTrades++
			s.GrossProfit += p.Profit.Amount
		} else {
			s.LosingTrades++
			s.GrossLoss += -p.Profit.Amount
		}
	}

	if s.TotalTrades == 0 {
		return s
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	if s.WinningTrades > 0 {
		s.AverageWin = s.GrossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = -s.GrossLoss / float64(s.LosingTrades)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	s.AverageHoldTime = holdTotal / time.Duration(s.TotalTrades)
	s.SharpeRatio = sharpe(returns)

	return s
}

// sharpe is the risk-free-rate-zero Sharpe ratio over per-trade returns.
func sharpe(returns []float64) float64 {
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

	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trades: %d (%d wins / %d losses, %.1f%% win rate)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate)
	fmt.Fprintf(&b, "Net profit: %.2f (gross +%.2f / -%.2f, fees %.2f)\n",
		s.NetProfit, s.GrossProfit, s.GrossLoss, s.TotalFees)
	fmt.Fprintf(&b, "Profit factor: %.2f  Avg win: %.2f  Avg loss: %.2f\n",
		s.ProfitFactor, s.AverageWin, s.AverageLoss)
	fmt.Fprintf(&b, "Avg hold time: %s  Sharpe: %.2f", s.AverageHoldTime, s.SharpeRatio)
	return b.String()
}
