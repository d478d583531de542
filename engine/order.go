package engine

import "time"

type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
	OrderStop   OrderType = "stop"
)

// OrderRequest is the caller's view of an order. Amount is the stake in
// account currency, not a unit count.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Type       OrderType
	Amount     float64
	LimitPrice *float64
	Leverage   int
	StopLoss   *float64
	TakeProfit *float64
	Strategy   string
}

type ReportStatus string

const (
	StatusFilled    ReportStatus = "filled"
	StatusPartial   ReportStatus = "partial"
	StatusRejected  ReportStatus = "rejected"
	StatusCancelled ReportStatus = "cancelled"
)

// ExecutionReport is returned from PlaceOrder and CloseTrade. Recoverable
// failures come back as StatusRejected with a human-readable Message; the
// engine never mutates state for a rejected request.
type ExecutionReport struct {
	Status     ReportStatus
	PositionID int64
	Price      float64
	Quantity   float64
	Commission float64
	Time       time.Time
	Message    string
}

func (e *Engine) rejected(msg string) ExecutionReport {
	return ExecutionReport{
		Status:  StatusRejected,
		Time:    e.clock.Now(),
		Message: msg,
	}
}
