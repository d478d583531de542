package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `id, position_id, symbol, side, strategy, amount, leverage,
	open_price, close_price, open_time, close_time, profit_amount, profit_percent, fees, reason`

func scanTrade(row interface{ Scan(...any) error }) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.ID,
		&rec.PositionID,
		&rec.Symbol,
		&rec.Side,
		&rec.Strategy,
		&rec.Amount,
		&rec.Leverage,
		&rec.OpenPrice,
		&rec.ClosePrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.ProfitAmount,
		&rec.ProfitPercent,
		&rec.Fees,
		&rec.Reason,
	)
	return rec, err
}

// GetTrade returns a single trade record by its ULID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return rec, err
}

// ListTrades returns all recorded trades ordered by close time.
func (j *SQLite) ListTrades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT ` + tradeColumns + `
		FROM trades
		ORDER BY close_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquityBetween returns equity snapshots taken within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, equity, margin_used, margin_available, realized_pnl, open_positions
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.Time,
			&e.Balance,
			&e.Equity,
			&e.MarginUsed,
			&e.MarginAvailable,
			&e.RealizedPnL,
			&e.OpenPositions,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
