package engine

// Account is the virtual ledger. Margin only ever transfers between
// MarginUsed and MarginAvailable, so their sum stays at the configured
// capacity; P&L and commissions flow through Balance.
type Account struct {
	Balance         float64
	Equity          float64
	MarginUsed      float64
	MarginAvailable float64
	RealizedPnL     float64
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
}

func newAccount(balance float64) Account {
	return Account{
		Balance:         balance,
		Equity:          balance,
		MarginAvailable: balance,
	}
}
