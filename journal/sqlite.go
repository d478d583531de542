package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(id, position_id, symbol, side, strategy, amount, leverage, open_price, close_price,
		 open_time, close_time, profit_amount, profit_percent, fees, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PositionID, t.Symbol, t.Side, t.Strategy, t.Amount, t.Leverage,
		t.OpenPrice, t.ClosePrice, t.OpenTime, t.CloseTime,
		t.ProfitAmount, t.ProfitPercent, t.Fees, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, balance, equity, margin_used, margin_available, realized_pnl, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.Balance, e.Equity, e.MarginUsed, e.MarginAvailable,
		e.RealizedPnL, e.OpenPositions,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
