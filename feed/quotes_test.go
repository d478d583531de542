package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotesLatestPrice(t *testing.T) {
	q := NewQuotes()
	ctx := context.Background()

	_, err := q.LatestPrice(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, ErrUnavailable)

	q.Set("BTCUSDT", 50000)
	px, err := q.LatestPrice(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, px)

	q.Set("BTCUSDT", 50100)
	px, err = q.LatestPrice(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50100.0, px)
}

func TestQuotesDrop(t *testing.T) {
	q := NewQuotes()
	q.Set("ETHUSDT", 3000)
	q.Drop("ETHUSDT")

	_, err := q.LatestPrice(context.Background(), "ETHUSDT")
	assert.ErrorIs(t, err, ErrUnavailable)
}
