package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSV(t *testing.T) (*CSV, string, string) {
	t.Helper()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	return j, tradesPath, equityPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVHeaders(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	assert.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 1)
	wantTrades := []string{
		"id", "position_id", "symbol", "side", "strategy", "amount", "leverage",
		"open_price", "close_price", "open_time", "close_time",
		"profit_amount", "profit_percent", "fees", "reason",
	}
	assert.Equal(t, wantTrades, trades[0])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 1)
	wantEquity := []string{
		"time", "balance", "equity", "margin_used", "margin_available",
		"realized_pnl", "open_positions",
	}
	assert.Equal(t, wantEquity, equity[0])
}

func TestCSVRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newTestCSV(t)

	rec := testTradeRecord()
	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, rec.ID, row[0])
	assert.Equal(t, "3", row[1])
	assert.Equal(t, "BTCUSDT", row[2])
	assert.Equal(t, "long", row[3])
	assert.Equal(t, "momentum", row[4])
	assert.Equal(t, "1000.000000", row[5])
	assert.Equal(t, "2", row[6])
	assert.Equal(t, "take_profit", row[14])
}

func TestCSVRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equityPath := newTestCSV(t)

	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Balance:         10000,
		Equity:          10100,
		MarginUsed:      1000,
		MarginAvailable: 9000,
		RealizedPnL:     100,
		OpenPositions:   2,
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "10000.000000", row[1])
	assert.Equal(t, "10100.000000", row[2])
	assert.Equal(t, "1000.000000", row[3])
	assert.Equal(t, "9000.000000", row[4])
	assert.Equal(t, "100.000000", row[5])
	assert.Equal(t, "2", row[6])
}
