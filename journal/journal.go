// Package journal records closed trades and equity snapshots produced by the
// paper-trading engine. The engine only ever writes; nothing in the engine
// reads journal data back.
package journal

import "time"

// TradeRecord is one closed trade.
type TradeRecord struct {
	ID            string // ULID, assigned by the writer
	PositionID    int64
	Symbol        string
	Side          string
	Strategy      string
	Amount        float64 // stake in account currency
	Leverage      int
	OpenPrice     float64
	ClosePrice    float64
	OpenTime      time.Time
	CloseTime     time.Time
	ProfitAmount  float64
	ProfitPercent float64
	Fees          float64
	Reason        string // manual | stop_loss | take_profit
}

// EquitySnapshot is the account view after a close or mark-to-market cycle.
type EquitySnapshot struct {
	Time            time.Time
	Balance         float64
	Equity          float64
	MarginUsed      float64
	MarginAvailable float64
	RealizedPnL     float64
	OpenPositions   int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything. It is the default journal for engines that are
// not configured to record.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
