package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	want := testTradeRecord()
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade(want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.PositionID, got.PositionID)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.InDelta(t, want.Amount, got.Amount, 1e-9)
	assert.Equal(t, want.Leverage, got.Leverage)
	assert.InDelta(t, want.OpenPrice, got.OpenPrice, 1e-9)
	assert.InDelta(t, want.ClosePrice, got.ClosePrice, 1e-9)
	assert.True(t, got.OpenTime.Equal(want.OpenTime))
	assert.True(t, got.CloseTime.Equal(want.CloseTime))
	assert.InDelta(t, want.ProfitAmount, got.ProfitAmount, 1e-9)
	assert.InDelta(t, want.ProfitPercent, got.ProfitPercent, 1e-9)
	assert.InDelta(t, want.Fees, got.Fees, 1e-9)
	assert.Equal(t, want.Reason, got.Reason)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	first := testTradeRecord()
	second := testTradeRecord()
	second.ID = "01HX5K3M9QZJ4R8W2T6Y0V1N7D"
	second.PositionID = 4
	second.CloseTime = first.CloseTime.Add(time.Hour)

	require.NoError(t, j.RecordTrade(first))
	require.NoError(t, j.RecordTrade(second))

	got, err := j.ListTrades()
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by close time.
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	inside := testTradeRecord()
	outside := testTradeRecord()
	outside.ID = "01HX5K3M9QZJ4R8W2T6Y0V1N7E"
	outside.PositionID = 9
	outside.CloseTime = day.AddDate(0, 0, 3)

	require.NoError(t, j.RecordTrade(inside))
	require.NoError(t, j.RecordTrade(outside))

	got, err := j.ListTradesClosedBetween(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside.ID, got[0].ID)
}

func TestListEquityBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snaps := []EquitySnapshot{
		{Time: base, Balance: 10_000, Equity: 10_000, MarginAvailable: 10_000},
		{Time: base.Add(5 * time.Second), Balance: 10_000, Equity: 10_050, MarginUsed: 100, MarginAvailable: 9_900, OpenPositions: 1},
		{Time: base.Add(time.Hour), Balance: 10_098, Equity: 10_098, MarginAvailable: 10_000, RealizedPnL: 100},
	}
	for _, s := range snaps {
		require.NoError(t, j.RecordEquity(s))
	}

	got, err := j.ListEquityBetween(base, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Time.Equal(base))
	assert.InDelta(t, 10_050.0, got[1].Equity, 1e-9)
	assert.Equal(t, 1, got[1].OpenPositions)
}
