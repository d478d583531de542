package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Run drives the two scheduled tasks, mark-to-market and the trigger
// monitor, until ctx is cancelled. Stop only gates new orders; positions
// already open keep being repriced and protected for as long as Run lives.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.loop(ctx, e.cfg.MarkInterval, e.MarkToMarket)
	}()
	go func() {
		defer wg.Done()
		e.loop(ctx, e.cfg.TriggerInterval, e.CheckTriggers)
	}()
	wg.Wait()
}

func (e *Engine) loop(ctx context.Context, every time.Duration, cycle func(context.Context)) {
	t := e.clock.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			cycle(ctx)
		}
	}
}

// MarkToMarket reprices every open position and refreshes account equity.
// A failed price fetch skips that symbol for the cycle; the rest proceed.
// This task never touches margin or realized P&L.
func (e *Engine) MarkToMarket(ctx context.Context) {
	e.mu.Lock()
	if len(e.open) == 0 {
		e.mu.Unlock()
		return
	}
	need := make(map[string]struct{}, len(e.open))
	for _, p := range e.open {
		need[p.Symbol] = struct{}{}
	}
	e.mu.Unlock()

	prices := make(map[string]float64, len(need))
	for sym := range need {
		px, err := e.feed.LatestPrice(ctx, sym)
		if err != nil {
			e.log.Warn("mark-to-market price fetch failed",
				zap.String("symbol", sym), zap.Error(err))
			continue
		}
		prices[sym] = px
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.open {
		px, ok := prices[p.Symbol]
		if !ok {
			continue
		}
		p.CurrentPrice = px
		p.Profit = p.profitAt(px)
	}
	e.recomputeEquityLocked()

	if err := e.jrnl.RecordEquity(e.snapshotLocked()); err != nil {
		e.log.Warn("journal equity record failed", zap.Error(err))
	}
}

// CheckTriggers closes every open position whose stop-loss or take-profit is
// breached at the latest price. Stop-loss wins when both thresholds are
// crossed within the same cycle. A position closed concurrently by another
// path is a benign no-op here.
func (e *Engine) CheckTriggers(ctx context.Context) {
	type candidate struct {
		id     int64
		symbol string
	}

	e.mu.Lock()
	var cands []candidate
	for _, p := range e.open {
		if p.StopLoss == nil && p.TakeProfit == nil {
			continue
		}
		cands = append(cands, candidate{id: p.ID, symbol: p.Symbol})
	}
	e.mu.Unlock()

	for _, c := range cands {
		px, err := e.feed.LatestPrice(ctx, c.symbol)
		if err != nil {
			e.log.Warn("trigger check price fetch failed",
				zap.String("symbol", c.symbol), zap.Error(err))
			continue
		}

		e.mu.Lock()
		reason := ""
		if p, ok := e.open[c.id]; ok {
			switch {
			case p.hitStopLoss(px):
				reason = ReasonStopLoss
			case p.hitTakeProfit(px):
				reason = ReasonTakeProfit
			}
		}
		e.mu.Unlock()
		if reason == "" {
			continue
		}

		if rep := e.closeAt(c.id, px, reason); rep.Status != StatusFilled {
			// Lost the close race to a manual close or the other loop.
			e.log.Debug("trigger close skipped",
				zap.Int64("position", c.id), zap.String("message", rep.Message))
		}
	}
}
