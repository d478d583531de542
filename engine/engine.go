// Package engine implements a paper-trading simulation engine: a virtual
// account ledger, an order gateway with simulated fills, and the periodic
// tasks that mark open positions to market and enforce stop-loss/take-profit
// thresholds against a live price feed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"papertrader/feed"
	"papertrader/journal"
	"papertrader/pkg/id"
)

const msgTradeNotFound = "Trade not found."

// Config holds the engine's tunables. Start from DefaultConfig and override.
type Config struct {
	InitialBalance  float64
	MaxLeverage     int
	CommissionRate  float64 // per leg, fraction of stake
	SlippageMin     float64 // fraction of market price
	SlippageMax     float64
	MarkInterval    time.Duration
	TriggerInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialBalance:  10_000,
		MaxLeverage:     10,
		CommissionRate:  0.001,
		SlippageMin:     0.001,
		SlippageMax:     0.005,
		MarkInterval:    5 * time.Second,
		TriggerInterval: time.Second,
	}
}

// Engine owns the account and the position book. All mutation funnels
// through the mutex; the only blocking call in any flow is the price fetch,
// which always happens outside the critical section.
type Engine struct {
	cfg  Config
	feed feed.Source

	mu     sync.Mutex
	log    *zap.Logger
	clock  Clock
	jrnl   journal.Journal
	sim    fillSimulator
	active bool
	acct   Account
	open   map[int64]*Position
	closed []*Position
	nextID int64
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.jrnl = j }
}

// WithRand injects the slippage source so fills are reproducible in tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.sim.rng = r }
}

func New(src feed.Source, cfg Config, opts ...Option) *Engine {
	if cfg.MaxLeverage < 1 {
		cfg.MaxLeverage = DefaultConfig().MaxLeverage
	}
	if cfg.MarkInterval <= 0 {
		cfg.MarkInterval = DefaultConfig().MarkInterval
	}
	if cfg.TriggerInterval <= 0 {
		cfg.TriggerInterval = DefaultConfig().TriggerInterval
	}

	e := &Engine{
		cfg:   cfg,
		feed:  src,
		log:   zap.NewNop(),
		clock: systemClock{},
		jrnl:  journal.Nop{},
		sim: fillSimulator{
			slipMin:        cfg.SlippageMin,
			slipMax:        cfg.SlippageMax,
			commissionRate: cfg.CommissionRate,
		},
		acct: newAccount(cfg.InitialBalance),
		open: make(map[int64]*Position),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sim.rng == nil {
		e.sim.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

func validateRequest(req OrderRequest) error {
	if req.Symbol == "" {
		return errors.New("symbol is required")
	}
	if req.Side != SideLong && req.Side != SideShort {
		return fmt.Errorf("unknown side %q", req.Side)
	}
	switch req.Type {
	case OrderMarket, OrderLimit, OrderStop:
	default:
		return fmt.Errorf("unknown order type %q", req.Type)
	}
	if req.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if req.LimitPrice != nil && *req.LimitPrice <= 0 {
		return errors.New("limit price must be positive")
	}
	return nil
}

// PlaceOrder opens a virtual position. Rejections (engine stopped, invalid
// request, feed failure, insufficient margin) leave the ledger untouched.
func (e *Engine) PlaceOrder(ctx context.Context, req OrderRequest) ExecutionReport {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if !active {
		return e.rejected("trading is stopped")
	}
	if err := validateRequest(req); err != nil {
		return e.rejected(err.Error())
	}

	price, err := e.feed.LatestPrice(ctx, req.Symbol)
	if err != nil {
		e.log.Warn("order rejected, price fetch failed",
			zap.String("symbol", req.Symbol), zap.Error(err))
		return e.rejected(fmt.Sprintf("no price for %s", req.Symbol))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lev := req.Leverage
	if lev < 1 {
		lev = 1
	}
	if lev > e.cfg.MaxLeverage {
		lev = e.cfg.MaxLeverage
	}

	fillPrice := e.sim.openFill(price, req)
	commission := e.sim.commission(req.Amount)
	margin := req.Amount / float64(lev)

	if margin > e.acct.MarginAvailable {
		return e.rejected(fmt.Sprintf("insufficient margin: required %.2f, available %.2f",
			margin, e.acct.MarginAvailable))
	}

	e.acct.MarginAvailable -= margin
	e.acct.MarginUsed += margin
	e.acct.Balance -= commission
	e.acct.TotalTrades++

	e.nextID++
	now := e.clock.Now()
	pos := &Position{
		ID:           e.nextID,
		Symbol:       req.Symbol,
		Side:         req.Side,
		Strategy:     req.Strategy,
		OpenTime:     now,
		OpenPrice:    fillPrice,
		CurrentPrice: fillPrice,
		Amount:       req.Amount,
		Leverage:     lev,
		Margin:       margin,
		StopLoss:     req.StopLoss,
		TakeProfit:   req.TakeProfit,
		Fees:         commission,
		Status:       PositionOpen,
	}
	e.open[pos.ID] = pos
	e.recomputeEquityLocked()

	e.log.Info("order filled",
		zap.Int64("position", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("side", string(pos.Side)),
		zap.Float64("price", fillPrice),
		zap.Float64("amount", pos.Amount),
		zap.Int("leverage", lev))

	return ExecutionReport{
		Status:     StatusFilled,
		PositionID: pos.ID,
		Price:      fillPrice,
		Quantity:   req.Amount / fillPrice,
		Commission: commission,
		Time:       now,
	}
}

// CloseTrade closes an open position at the current market price. Closing an
// unknown or already-closed position reports not-found, which is how the
// loser of a close race learns it lost.
func (e *Engine) CloseTrade(ctx context.Context, positionID int64) ExecutionReport {
	e.mu.Lock()
	pos, ok := e.open[positionID]
	var symbol string
	if ok {
		symbol = pos.Symbol
	}
	e.mu.Unlock()
	if !ok {
		return e.rejected(msgTradeNotFound)
	}

	price, err := e.feed.LatestPrice(ctx, symbol)
	if err != nil {
		e.log.Warn("close rejected, price fetch failed",
			zap.String("symbol", symbol), zap.Error(err))
		return e.rejected(fmt.Sprintf("no price for %s", symbol))
	}

	return e.closeAt(positionID, price, ReasonManual)
}

// closeAt settles a position against a price snapshot taken by the caller.
// Margin release, balance credit and the open→closed move happen in one
// critical section, so a close either fully applies or not at all.
func (e *Engine) closeAt(positionID int64, marketPrice float64, reason string) ExecutionReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.open[positionID]
	if !ok {
		return e.rejected(msgTradeNotFound)
	}

	closePrice := e.sim.closeFill(marketPrice, pos.Side)
	commission := e.sim.commission(pos.Amount)
	profit := pos.profitAt(closePrice)
	now := e.clock.Now()

	e.acct.MarginUsed -= pos.Margin
	e.acct.MarginAvailable += pos.Margin
	e.acct.Balance += profit.Amount - commission
	e.acct.RealizedPnL += profit.Amount
	if profit.Amount > 0 {
		e.acct.WinningTrades++
	} else if profit.Amount < 0 {
		e.acct.LosingTrades++
	}

	pos.Fees += commission
	pos.CurrentPrice = closePrice
	pos.ClosePrice = closePrice
	pos.CloseTime = now
	pos.CloseReason = reason
	pos.Profit = profit
	pos.Status = PositionClosed

	delete(e.open, positionID)
	e.closed = append(e.closed, pos)
	e.recomputeEquityLocked()
	e.recordCloseLocked(pos)

	e.log.Info("position closed",
		zap.Int64("position", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("reason", reason),
		zap.Float64("price", closePrice),
		zap.Float64("profit", profit.Amount))

	return ExecutionReport{
		Status:     StatusFilled,
		PositionID: pos.ID,
		Price:      closePrice,
		Quantity:   pos.Amount / closePrice,
		Commission: commission,
		Time:       now,
	}
}

// Start enables order placement. Open positions are managed by the
// scheduled tasks whether or not the engine is started.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = true
}

// Stop halts acceptance of new orders. Closes and trigger checks continue.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
}

// Reset restores the initial account, clears both position sets and restarts
// the position id sequence. The engine mutex makes it exclusive with any
// in-flight order or close.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.acct = newAccount(e.cfg.InitialBalance)
	e.open = make(map[int64]*Position)
	e.closed = nil
	e.nextID = 0
	e.log.Info("engine reset", zap.Float64("balance", e.cfg.InitialBalance))
}

// Account returns a snapshot of the ledger.
func (e *Engine) Account() Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct
}

// OpenPositions returns copies of the open positions ordered by id.
func (e *Engine) OpenPositions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Position, 0, len(e.open))
	for _, p := range e.open {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClosedPositions returns copies of the closed history in close order.
func (e *Engine) ClosedPositions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Position, len(e.closed))
	for i, p := range e.closed {
		out[i] = *p
	}
	return out
}

// Status is the engine view consumed by UI and alerting collaborators.
type Status struct {
	Active        bool
	FeedConnected bool
	Account       Account
	OpenCount     int
	TotalCount    int
}

func (e *Engine) Status() Status {
	connected := true
	if sr, ok := e.feed.(feed.StatusReporter); ok {
		connected = sr.Connected()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Active:        e.active,
		FeedConnected: connected,
		Account:       e.acct,
		OpenCount:     len(e.open),
		TotalCount:    len(e.open) + len(e.closed),
	}
}

// recomputeEquityLocked refreshes Equity = Balance + unrealized P&L of the
// open set, using each position's last marked profit.
func (e *Engine) recomputeEquityLocked() {
	unrealized := 0.0
	for _, p := range e.open {
		unrealized += p.Profit.Amount
	}
	e.acct.Equity = e.acct.Balance + unrealized
}

func (e *Engine) snapshotLocked() journal.EquitySnapshot {
	return journal.EquitySnapshot{
		Time:            e.clock.Now(),
		Balance:         e.acct.Balance,
		Equity:          e.acct.Equity,
		MarginUsed:      e.acct.MarginUsed,
		MarginAvailable: e.acct.MarginAvailable,
		RealizedPnL:     e.acct.RealizedPnL,
		OpenPositions:   len(e.open),
	}
}

// recordCloseLocked journals the closed trade and the resulting account
// view. Journal failures are logged, never propagated into the close path.
func (e *Engine) recordCloseLocked(p *Position) {
	rec := journal.TradeRecord{
		ID:            id.New(),
		PositionID:    p.ID,
		Symbol:        p.Symbol,
		Side:          string(p.Side),
		Strategy:      p.Strategy,
		Amount:        p.Amount,
		Leverage:      p.Leverage,
		OpenPrice:     p.OpenPrice,
		ClosePrice:    p.ClosePrice,
		OpenTime:      p.OpenTime,
		CloseTime:     p.CloseTime,
		ProfitAmount:  p.Profit.Amount,
		ProfitPercent: p.Profit.Percent,
		Fees:          p.Fees,
		Reason:        p.CloseReason,
	}
	if err := e.jrnl.RecordTrade(rec); err != nil {
		e.log.Warn("journal trade record failed", zap.Error(err))
	}
	if err := e.jrnl.RecordEquity(e.snapshotLocked()); err != nil {
		e.log.Warn("journal equity record failed", zap.Error(err))
	}
}
