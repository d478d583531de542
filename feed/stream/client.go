// Package stream provides a price feed fed by a Binance miniTicker
// websocket stream. Prices are cached as they arrive so LatestPrice
// never blocks on the network.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"papertrader/feed"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = 20 * time.Second
	reconnectDelay = time.Second
	maxReconnect   = 30 * time.Second
)

// Client maintains a single websocket connection and a cache of the
// last traded price per subscribed symbol.
type Client struct {
	url     string
	symbols []string
	log     *zap.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	prices    map[string]float64
	connected bool

	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stream feed for the given symbols. Call Connect before use.
func New(url string, symbols []string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:     url,
		symbols: symbols,
		log:     log,
		prices:  make(map[string]float64),
		done:    make(chan struct{}),
	}
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// miniTicker is the subset of the Binance miniTicker event we care about.
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// Connect dials the stream and starts the read pump. The pump reconnects
// on failure until Close is called or ctx is cancelled.
func (c *Client) Connect(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	if err := c.dial(ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go c.readPump(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, strings.ToLower(s)+"@miniTicker")
	}
	sub := subscribeRequest{Method: "SUBSCRIBE", Params: params, ID: 1}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.log.Info("stream connected", zap.String("url", c.url), zap.Strings("symbols", c.symbols))
	return nil
}

func (c *Client) readPump(ctx context.Context) {
	defer c.wg.Done()

	pinger := time.NewTicker(pingInterval)
	defer pinger.Stop()

	delay := reconnectDelay
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-pinger.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				conn.WriteMessage(websocket.PingMessage, nil)
			}
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		_, message, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()

			select {
			case <-c.done:
				return
			case <-ctx.Done():
				return
			default:
			}

			c.log.Warn("stream read failed, reconnecting",
				zap.Error(err), zap.Duration("delay", delay))
			conn.Close()

			select {
			case <-time.After(delay):
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
			if delay *= 2; delay > maxReconnect {
				delay = maxReconnect
			}

			if err := c.dial(ctx); err != nil {
				c.log.Warn("stream redial failed", zap.Error(err))
			}
			continue
		}
		delay = reconnectDelay

		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var tick miniTicker
	if err := json.Unmarshal(message, &tick); err != nil || tick.Symbol == "" {
		// Subscription acks and other control frames land here.
		return
	}

	price, err := strconv.ParseFloat(tick.Close, 64)
	if err != nil || price <= 0 {
		c.log.Debug("dropping malformed tick",
			zap.String("symbol", tick.Symbol), zap.String("close", tick.Close))
		return
	}

	c.mu.Lock()
	c.prices[tick.Symbol] = price
	c.mu.Unlock()
}

// LatestPrice returns the most recently streamed price for symbol.
func (c *Client) LatestPrice(_ context.Context, symbol string) (float64, error) {
	c.mu.RLock()
	price, ok := c.prices[symbol]
	connected := c.connected
	c.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("%w: no tick received for %s", feed.ErrUnavailable, symbol)
	}
	if !connected {
		return 0, fmt.Errorf("%w: stream disconnected", feed.ErrUnavailable)
	}
	return price, nil
}

// Connected reports whether the stream is currently up.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close shuts the stream down and waits for the pump to exit.
func (c *Client) Close() error {
	close(c.done)
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	conn := c.conn
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
	return nil
}
