// Package binance provides a price feed backed by the Binance spot REST API.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"papertrader/feed"
)

// Client fetches last-traded prices over REST. Keys may be empty; the
// ticker endpoints are public.
type Client struct {
	api       *binance.Client
	log       *zap.Logger
	connected atomic.Bool
}

// New creates a Binance price feed.
func New(apiKey, secretKey string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		api: binance.NewClient(apiKey, secretKey),
		log: log,
	}
}

// Ping checks connectivity to the exchange.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.api.NewPingService().Do(ctx); err != nil {
		c.connected.Store(false)
		return fmt.Errorf("binance ping: %w", err)
	}
	c.connected.Store(true)
	return nil
}

// LatestPrice returns the last traded price for symbol.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.api.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		c.connected.Store(false)
		return 0, fmt.Errorf("%w: %s: %v", feed.ErrUnavailable, symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%w: no price for %s", feed.ErrUnavailable, symbol)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q for %s: %w", prices[0].Price, symbol, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive price for %s", feed.ErrUnavailable, symbol)
	}

	c.connected.Store(true)
	c.log.Debug("fetched price", zap.String("symbol", symbol), zap.Float64("price", price))
	return price, nil
}

// Connected reports whether the last exchange call succeeded.
func (c *Client) Connected() bool {
	return c.connected.Load()
}
