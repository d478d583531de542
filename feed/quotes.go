package feed

import (
	"context"
	"fmt"
	"sync"
)

// Quotes is an in-memory price store. It backs tests, demos and scripted
// simulations where prices are pushed rather than pulled from an exchange.
type Quotes struct {
	mu   sync.RWMutex
	last map[string]float64
}

func NewQuotes() *Quotes {
	return &Quotes{last: make(map[string]float64)}
}

// Set records the latest traded price for symbol.
func (q *Quotes) Set(symbol string, price float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.last[symbol] = price
}

// Drop removes the stored price for symbol, simulating a stale/missing quote.
func (q *Quotes) Drop(symbol string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.last, symbol)
}

func (q *Quotes) LatestPrice(_ context.Context, symbol string) (float64, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	px, ok := q.last[symbol]
	if !ok {
		return 0, fmt.Errorf("%s: %w", symbol, ErrUnavailable)
	}
	return px, nil
}
