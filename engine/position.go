package engine

import "time"

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Close reasons stamped on a position when it leaves the open set.
const (
	ReasonManual     = "manual"
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
)

// Profit is the derived P&L view of a position, unrealized while the
// position is open and realized once it closes.
type Profit struct {
	Amount  float64
	Percent float64
}

// Position is one virtual trade. Amount is the notional stake in account
// currency; Margin is the slice of account capacity reserved at open time
// and released verbatim on close.
type Position struct {
	ID           int64
	Symbol       string
	Side         Side
	Strategy     string
	OpenTime     time.Time
	OpenPrice    float64
	CurrentPrice float64
	Amount       float64
	Leverage     int
	Margin       float64
	StopLoss     *float64
	TakeProfit   *float64
	Fees         float64
	Status       PositionStatus
	Profit       Profit

	ClosePrice  float64
	CloseTime   time.Time
	CloseReason string
}

// profitAt computes the leveraged P&L of the position marked at price.
func (p *Position) profitAt(price float64) Profit {
	pct := (price - p.OpenPrice) / p.OpenPrice * 100 * float64(p.Leverage)
	if p.Side == SideShort {
		pct = -pct
	}
	return Profit{
		Amount:  p.Amount * pct / 100,
		Percent: pct,
	}
}

func (p *Position) hitStopLoss(price float64) bool {
	if p.StopLoss == nil {
		return false
	}
	if p.Side == SideLong {
		return price <= *p.StopLoss
	}
	return price >= *p.StopLoss
}

func (p *Position) hitTakeProfit(price float64) bool {
	if p.TakeProfit == nil {
		return false
	}
	if p.Side == SideLong {
		return price >= *p.TakeProfit
	}
	return price <= *p.TakeProfit
}
