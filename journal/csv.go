package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{
		"id", "position_id", "symbol", "side", "strategy", "amount", "leverage",
		"open_price", "close_price", "open_time", "close_time",
		"profit_amount", "profit_percent", "fees", "reason",
	}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{
		"time", "balance", "equity", "margin_used", "margin_available",
		"realized_pnl", "open_positions",
	}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSV{tw, ew, tf, ef}, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.ID,
		strconv.FormatInt(t.PositionID, 10),
		t.Symbol,
		t.Side,
		t.Strategy,
		f(t.Amount),
		strconv.Itoa(t.Leverage),
		f(t.OpenPrice),
		f(t.ClosePrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.ProfitAmount),
		f(t.ProfitPercent),
		f(t.Fees),
		t.Reason,
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	if err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
		f(e.MarginUsed),
		f(e.MarginAvailable),
		f(e.RealizedPnL),
		strconv.Itoa(e.OpenPositions),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
